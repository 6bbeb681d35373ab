package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlaslab/studyatlas/internal/application/retrieval"
)

// DebugHandler exposes corpus diagnostics. Mounted only when the debug
// corpus endpoint is enabled in configuration.
type DebugHandler struct {
	svc *retrieval.Service
}

func NewDebugHandler(svc *retrieval.Service) *DebugHandler {
	return &DebugHandler{svc: svc}
}

// Corpus handles GET /debug/corpus: server version, table counts, and a
// handful of sample rows, for verifying an ingest without psql access.
func (h *DebugHandler) Corpus(c *gin.Context) {
	stats, err := h.svc.CorpusStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "corpus": stats})
}
