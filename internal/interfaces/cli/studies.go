package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/atlaslab/studyatlas/pkg/client"
)

func newTermCommand(app *App) *cobra.Command {
	var fuzzy bool
	cmd := &cobra.Command{
		Use:   "term <term>",
		Short: "List studies annotated with a term",
		Example: `  atlasctl term "working memory"
  atlasctl term fear --fuzzy=false --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.client.StudiesByTerm(cmd.Context(), args[0], fuzzy, app.page())
			if err != nil {
				return err
			}
			if app.opts.Output == "json" {
				return app.printJSON(res)
			}
			fmt.Fprintf(app.out, "%d study(ies) for %q", res.Count, res.TermInput)
			if res.Fuzzy {
				fmt.Fprint(app.out, " (prefix match)")
			}
			fmt.Fprintln(app.out)
			app.printTermTable(res.Items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", true, "fall back to prefix matching when nothing matches exactly")
	return cmd
}

func newLocationCommand(app *App) *cobra.Command {
	var radius float64
	cmd := &cobra.Command{
		Use:   "location <x> <y> <z>",
		Short: "List studies reporting a coordinate",
		Example: `  atlasctl location 10 -4 2
  atlasctl location 10 -4 2 --radius 6`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePointArgs(args)
			if err != nil {
				return err
			}
			res, err := app.client.StudiesByLocation(cmd.Context(), p, radius, app.page())
			if err != nil {
				return err
			}
			if app.opts.Output == "json" {
				return app.printJSON(res)
			}
			fmt.Fprintf(app.out, "%d study(ies) near (%g, %g, %g) r=%g\n",
				res.Count, p.X, p.Y, p.Z, radius)
			app.printLocationTable(res.Items)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "match radius (0 means exact)")
	return cmd
}

func newDissociateCommand(app *App) *cobra.Command {
	dissociate := &cobra.Command{
		Use:   "dissociate",
		Short: "Set-difference retrieval between two facets",
	}

	var fuzzy bool
	terms := &cobra.Command{
		Use:     "terms <termA> <termB>",
		Short:   "Studies matching termA with no annotation matching termB",
		Example: `  atlasctl dissociate terms fear pain`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.client.DissociateTerms(cmd.Context(), args[0], args[1], fuzzy, app.page())
			if err != nil {
				return err
			}
			if app.opts.Output == "json" {
				return app.printJSON(res)
			}
			fmt.Fprintf(app.out, "%d study(ies) with %q and not %q\n", res.Count, res.TermA, res.TermB)
			rows := make([]client.TermStudy, 0, len(res.Items))
			for _, it := range res.Items {
				rows = append(rows, client.TermStudy{
					StudyID:   it.StudyID,
					Title:     it.Title,
					Journal:   it.Journal,
					Year:      it.Year,
					Term:      it.Term,
					CleanTerm: it.CleanTerm,
					Weight:    it.WeightA,
				})
			}
			app.printTermTable(rows)
			return nil
		},
	}
	terms.Flags().BoolVar(&fuzzy, "fuzzy", false, "prefix-match both terms")

	var radius float64
	locations := &cobra.Command{
		Use:     "locations <ax> <ay> <az> <bx> <by> <bz>",
		Short:   "Studies with a coordinate near A and none near B",
		Example: `  atlasctl dissociate locations 10 -4 2 0 0 0 --radius 6`,
		Args:    cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parsePointArgs(args[:3])
			if err != nil {
				return err
			}
			b, err := parsePointArgs(args[3:])
			if err != nil {
				return err
			}
			res, err := app.client.DissociateLocations(cmd.Context(), a, b, radius, app.page())
			if err != nil {
				return err
			}
			if app.opts.Output == "json" {
				return app.printJSON(res)
			}
			fmt.Fprintf(app.out, "%d study(ies) near A and not near B, r=%g\n", res.Count, radius)
			app.printLocationTable(res.Items)
			return nil
		},
	}
	locations.Flags().Float64VarP(&radius, "radius", "r", 0, "match radius (0 means exact)")

	dissociate.AddCommand(terms, locations)
	return dissociate
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.Healthy(cmd.Context()); err != nil {
				return fmt.Errorf("server not ready: %w", err)
			}
			fmt.Fprintln(app.out, "server ready")
			return nil
		},
	}
}

func parsePointArgs(args []string) (client.Point, error) {
	var p client.Point
	for i, dst := range []*float64{&p.X, &p.Y, &p.Z} {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return client.Point{}, fmt.Errorf("coordinate %q is not a number", args[i])
		}
		*dst = v
	}
	return p, nil
}
