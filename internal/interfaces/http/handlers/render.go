package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atlaslab/studyatlas/internal/domain/study"
	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

// The renderer is the last step of every retrieval response. It never
// re-sorts or filters; format selects only the serialization.

const (
	formatJSON = "json"
	formatHTML = "html"
)

// cardTemplate renders one study card per result row. html/template
// escapes every interpolated field, so stored titles and journals cannot
// inject markup.
var cardTemplate = template.Must(template.New("cards").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>studyatlas results</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.card { border: 1px solid #ccc; border-radius: 6px; padding: 1em; margin-bottom: 1em; }
.card h3 { margin: 0 0 .4em 0; }
.meta { color: #555; font-size: .9em; }
</style>
</head>
<body>
<p>{{.Count}} result(s)</p>
{{range .Cards}}<div class="card">
<h3>{{.Title}}</h3>
<p class="meta">{{.Journal}}{{if .Year}} ({{.Year}}){{end}} &mdash; study {{.StudyID}}</p>
{{if .Term}}<p>term: {{.Term}}{{if .Weight}} (weight {{.Weight}}){{end}}</p>{{end}}
{{if .Coordinate}}<p>coordinate: {{.Coordinate}}</p>{{end}}
</div>
{{end}}</body>
</html>
`))

type card struct {
	StudyID    string
	Title      string
	Journal    string
	Year       *int
	Term       string
	Weight     *float64
	Coordinate string
}

type cardPage struct {
	Count int
	Cards []card
}

func termCards(rows []study.TermStudyRow) cardPage {
	page := cardPage{Count: len(rows)}
	for _, r := range rows {
		page.Cards = append(page.Cards, card{
			StudyID: r.ID,
			Title:   r.Title,
			Journal: r.Journal,
			Year:    r.Year,
			Term:    r.CleanTerm,
			Weight:  r.Weight,
		})
	}
	return page
}

func locationCards(rows []study.LocationStudyRow) cardPage {
	page := cardPage{Count: len(rows)}
	for _, r := range rows {
		page.Cards = append(page.Cards, card{
			StudyID:    r.ID,
			Title:      r.Title,
			Journal:    r.Journal,
			Year:       r.Year,
			Coordinate: r.Example.String(),
		})
	}
	return page
}

// requestedFormat validates the format query parameter. Unknown values
// are a client error, not a silent JSON fallback.
func requestedFormat(c *gin.Context) (string, error) {
	f := strings.ToLower(c.DefaultQuery("format", formatJSON))
	switch f {
	case formatJSON, formatHTML:
		return f, nil
	default:
		return "", apperrors.New(apperrors.ErrCodeBadFormat, "unsupported format %q", f)
	}
}

// renderPage writes either the JSON envelope or the HTML card page.
func renderPage(c *gin.Context, format string, envelope any, page cardPage) {
	if format == formatHTML {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		_ = cardTemplate.Execute(c.Writer, page)
		return
	}
	c.JSON(http.StatusOK, envelope)
}
