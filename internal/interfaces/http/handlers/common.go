// Package handlers implements the HTTP endpoints. Handlers parse and
// default request parameters, call the retrieval service, and hand the
// result to the renderer; they never touch the store directly.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

// errorBody is the envelope for failed requests. ok is always present so
// clients can branch without inspecting status codes.
type errorBody struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// respondError maps an application error onto its HTTP status. Store
// failures surface their message rather than a generic one.
func respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	msg := err.Error()
	var app *apperrors.AppError
	if apperrors.As(err, &app) {
		msg = app.Message
		if app.Cause != nil {
			msg = msg + ": " + app.Cause.Error()
		}
	}
	c.JSON(apperrors.HTTPStatusForCode(code), errorBody{
		OK:    false,
		Code:  string(code),
		Error: msg,
	})
}

// intQuery reads an integer query parameter, silently falling back to def
// on absence or parse failure. Bad pagination is forgiven, bad
// coordinates are not; that asymmetry is deliberate.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// floatQuery reads a float query parameter with silent fallback, flooring
// negatives to def since a negative radius is meaningless.
func floatQuery(c *gin.Context, name string, def float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// boolQuery reads a boolean query parameter with silent fallback.
func boolQuery(c *gin.Context, name string, def bool) bool {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
