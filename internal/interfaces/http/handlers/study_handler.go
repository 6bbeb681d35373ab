package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlaslab/studyatlas/internal/application/retrieval"
	"github.com/atlaslab/studyatlas/internal/domain/study"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
)

// StudyHandler exposes the four retrieval operations.
type StudyHandler struct {
	svc    *retrieval.Service
	logger logging.Logger
}

func NewStudyHandler(svc *retrieval.Service, logger logging.Logger) *StudyHandler {
	return &StudyHandler{svc: svc, logger: logger}
}

// Register mounts the retrieval routes on the versioned group.
func (h *StudyHandler) Register(g *gin.RouterGroup) {
	g.GET("/terms/:term/studies", h.StudiesByTerm)
	g.GET("/locations/:coords/studies", h.StudiesByLocation)
	g.GET("/dissociate/terms/:a/:b", h.DissociateTerms)
	g.GET("/dissociate/locations/:a/:b", h.DissociateLocations)
}

type termEnvelope struct {
	OK                   bool                 `json:"ok"`
	TermInput            string               `json:"term_input"`
	NormalizedCandidates []string             `json:"normalized_candidates"`
	Fuzzy                bool                 `json:"fuzzy"`
	Count                int                  `json:"count"`
	Items                []study.TermStudyRow `json:"items"`
}

type locationEnvelope struct {
	OK         bool                     `json:"ok"`
	Coordinate study.Point              `json:"coordinate"`
	Radius     float64                  `json:"radius"`
	Count      int                      `json:"count"`
	Items      []study.LocationStudyRow `json:"items"`
}

// dissociateTermItem renames the match weight to weight_a in the wire
// shape: in a dissociation it is specifically the A-side weight, the B
// side having none by construction.
type dissociateTermItem struct {
	study.Study
	Term      string   `json:"term"`
	CleanTerm string   `json:"clean_term"`
	WeightA   *float64 `json:"weight_a"`
}

type dissociateTermsEnvelope struct {
	OK    bool                 `json:"ok"`
	TermA string               `json:"term_a"`
	TermB string               `json:"term_b"`
	Fuzzy bool                 `json:"fuzzy"`
	Count int                  `json:"count"`
	Items []dissociateTermItem `json:"items"`
}

type dissociateLocationsEnvelope struct {
	OK          bool                     `json:"ok"`
	CoordinateA study.Point              `json:"coordinate_a"`
	CoordinateB study.Point              `json:"coordinate_b"`
	Radius      float64                  `json:"radius"`
	Count       int                      `json:"count"`
	Items       []study.LocationStudyRow `json:"items"`
}

// StudiesByTerm handles GET /terms/:term/studies.
func (h *StudyHandler) StudiesByTerm(c *gin.Context) {
	format, err := requestedFormat(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)
	fuzzy := boolQuery(c, "fuzzy", true)

	res, err := h.svc.StudiesByTerm(c.Request.Context(), c.Param("term"), fuzzy, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	renderPage(c, format, termEnvelope{
		OK:                   true,
		TermInput:            res.TermInput,
		NormalizedCandidates: res.NormalizedCandidates,
		Fuzzy:                res.Fuzzy,
		Count:                len(res.Rows),
		Items:                res.Rows,
	}, termCards(res.Rows))
}

// StudiesByLocation handles GET /locations/:coords/studies.
func (h *StudyHandler) StudiesByLocation(c *gin.Context) {
	format, err := requestedFormat(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)
	r := floatQuery(c, "r", 0)

	res, err := h.svc.StudiesByLocation(c.Request.Context(), c.Param("coords"), r, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	renderPage(c, format, locationEnvelope{
		OK:         true,
		Coordinate: res.Coordinate,
		Radius:     res.Radius,
		Count:      len(res.Rows),
		Items:      res.Rows,
	}, locationCards(res.Rows))
}

// DissociateTerms handles GET /dissociate/terms/:a/:b.
func (h *StudyHandler) DissociateTerms(c *gin.Context) {
	format, err := requestedFormat(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)
	fuzzy := boolQuery(c, "fuzzy", false)

	res, err := h.svc.DissociateTerms(c.Request.Context(), c.Param("a"), c.Param("b"), fuzzy, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dissociateTermItem, 0, len(res.Rows))
	for _, row := range res.Rows {
		items = append(items, dissociateTermItem{
			Study:     row.Study,
			Term:      row.Term,
			CleanTerm: row.CleanTerm,
			WeightA:   row.Weight,
		})
	}
	renderPage(c, format, dissociateTermsEnvelope{
		OK:    true,
		TermA: res.TermA,
		TermB: res.TermB,
		Fuzzy: res.Fuzzy,
		Count: len(res.Rows),
		Items: items,
	}, termCards(res.Rows))
}

// DissociateLocations handles GET /dissociate/locations/:a/:b. The radius
// defaults to 0, which is exact coordinate equality.
func (h *StudyHandler) DissociateLocations(c *gin.Context) {
	format, err := requestedFormat(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)
	r := floatQuery(c, "r", 0)

	res, err := h.svc.DissociateLocations(c.Request.Context(), c.Param("a"), c.Param("b"), r, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	renderPage(c, format, dissociateLocationsEnvelope{
		OK:          true,
		CoordinateA: res.CoordinateA,
		CoordinateB: res.CoordinateB,
		Radius:      res.Radius,
		Count:       len(res.Rows),
		Items:       res.Rows,
	}, locationCards(res.Rows))
}

// Root handles GET /, a bare liveness text probe.
func Root(c *gin.Context) {
	c.String(http.StatusOK, "studyatlas: server working")
}
