// Package cli implements the atlasctl command line over the HTTP client.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atlaslab/studyatlas/pkg/client"
)

// RootOptions are the persistent flags shared by every subcommand.
type RootOptions struct {
	ServerURL string
	Output    string // table or json
	Limit     int
	Offset    int
}

// App carries the client and options through command execution.
type App struct {
	opts   RootOptions
	client *client.Client
	out    io.Writer
}

// NewRootCommand builds the atlasctl command tree.
func NewRootCommand() *cobra.Command {
	app := &App{out: os.Stdout}

	root := &cobra.Command{
		Use:   "atlasctl",
		Short: "Query a studyatlas server",
		Long: `atlasctl queries a studyatlas retrieval server: studies by term,
studies by coordinate, and dissociation between two terms or two
coordinates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.opts.Output != "table" && app.opts.Output != "json" {
				return fmt.Errorf("unsupported output %q (table or json)", app.opts.Output)
			}
			app.out = cmd.OutOrStdout()
			app.client = client.New(app.opts.ServerURL)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.opts.ServerURL, "server", "http://localhost:8080", "studyatlas server base URL")
	pf.StringVarP(&app.opts.Output, "output", "o", "table", "output format (table or json)")
	pf.IntVar(&app.opts.Limit, "limit", 0, "max results (server default when 0)")
	pf.IntVar(&app.opts.Offset, "offset", 0, "pagination offset")

	root.AddCommand(
		newTermCommand(app),
		newLocationCommand(app),
		newDissociateCommand(app),
		newStatusCommand(app),
	)
	return root
}

func (a *App) page() client.PageOptions {
	return client.PageOptions{Limit: a.opts.Limit, Offset: a.opts.Offset}
}

// printJSON writes any payload as indented JSON.
func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTermTable renders term rows as an aligned table.
func (a *App) printTermTable(items []client.TermStudy) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDY\tYEAR\tWEIGHT\tTERM\tTITLE")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			it.StudyID, yearString(it.Year), weightString(it.Weight),
			it.CleanTerm, truncate(it.Title, 60))
	}
	w.Flush()
}

// printLocationTable renders location rows as an aligned table.
func (a *App) printLocationTable(items []client.LocationStudy) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDY\tYEAR\tCOORDINATE\tTITLE")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%g,%g,%g\t%s\n",
			it.StudyID, yearString(it.Year),
			it.Example.X, it.Example.Y, it.Example.Z,
			truncate(it.Title, 60))
	}
	w.Flush()
}

func yearString(y *int) string {
	if y == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *y)
}

func weightString(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *w)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
