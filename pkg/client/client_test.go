package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudiesByTermDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/terms/working%20memory/studies", r.URL.EscapedPath())
		assert.Equal(t, "true", r.URL.Query().Get("fuzzy"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"term_input":"working memory",
			"normalized_candidates":["working_memory","working memory"],
			"fuzzy":false,"count":1,
			"items":[{"study_id":"s1","title":"T","journal":"J","year":2020,
			          "term":"cognition__working_memory","clean_term":"working_memory","weight":0.7}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.StudiesByTerm(context.Background(), "working memory", true, PageOptions{Limit: 10})
	require.NoError(t, err)
	assert.True(t, res.OK)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "working_memory", res.Items[0].CleanTerm)
	require.NotNil(t, res.Items[0].Weight)
	assert.Equal(t, 0.7, *res.Items[0].Weight)
}

func TestDissociateLocationsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dissociate/locations/10_-4_2/0_0_0", r.URL.Path)
		assert.Equal(t, "6", r.URL.Query().Get("r"))
		w.Write([]byte(`{"ok":true,"count":0,"items":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.DissociateLocations(context.Background(),
		Point{X: 10, Y: -4, Z: 2}, Point{}, 6, PageOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
}

func TestAPIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"code":"STUDY_001","error":"malformed coordinate triplet"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.StudiesByLocation(context.Background(), Point{X: 1}, 0, PageOptions{})
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "STUDY_001", apiErr.Code)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"ok":false,"code":"COMMON_007","error":"transient"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"count":0,"items":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetries(2))
	res, err := c.StudiesByTerm(context.Background(), "fear", false, PageOptions{})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"code":"STUDY_001","error":"bad"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetries(3))
	_, err := c.StudiesByTerm(context.Background(), "fear", false, PageOptions{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
