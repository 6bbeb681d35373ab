package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlaslab/studyatlas/internal/application/retrieval"
	"github.com/atlaslab/studyatlas/internal/config"
	"github.com/atlaslab/studyatlas/internal/domain/study"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	"github.com/atlaslab/studyatlas/internal/testutil"
	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

func testFixtures() []testutil.Fixture {
	return []testutil.Fixture{
		{
			Study: study.Study{ID: "s1", Title: "Fear <script>alert(1)</script>", Journal: "J Neuro", Year: testutil.Ptr(2019)},
			Annotations: []study.Annotation{
				{StudyID: "s1", ContrastID: "c1", Term: "emotion__fear", Weight: testutil.Ptr(0.9)},
			},
			Coordinates: []study.Point{{X: 10, Y: -4, Z: 2}},
		},
		{
			Study: study.Study{ID: "s2", Title: "Pain thresholds", Journal: "Brain", Year: testutil.Ptr(2021)},
			Annotations: []study.Annotation{
				{StudyID: "s2", ContrastID: "c1", Term: "pain", Weight: testutil.Ptr(0.4)},
			},
			Coordinates: []study.Point{{X: 0, Y: 0, Z: 0}},
		},
	}
}

func testRouter(store study.StudyStore, mutate ...func(*config.Config)) http.Handler {
	cfg := config.Default()
	cfg.Server.Mode = "release"
	cfg.Metrics.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}
	svc := retrieval.NewService(store, cfg.Query.DefaultLimit, cfg.Query.MaxLimit, logging.NewNop())
	return NewRouter(cfg, RouterDeps{Service: svc, Logger: logging.NewNop()})
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTermEndpointEnvelope(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/terms/fear/studies")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "fear", body["term_input"])
	assert.ElementsMatch(t, []any{"fear", "fear"}, body["normalized_candidates"])
	items := body["items"].([]any)
	first := items[0].(map[string]any)
	assert.Equal(t, "s1", first["study_id"])
	assert.Equal(t, "fear", first["clean_term"])
}

func TestTermEndpointEmptyResultIsOK(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/terms/nothing-here/studies")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(0), body["count"])
}

func TestTermEndpointBadLimitFallsBack(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/terms/fear/studies?limit=abc&offset=-5")

	// Unparseable pagination is forgiven, not rejected.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])
}

func TestLocationEndpoint(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/locations/10_-4_2/studies")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	coord := body["coordinate"].(map[string]any)
	assert.Equal(t, float64(10), coord["x"])
}

func TestLocationEndpointBadTripletIs400(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/locations/10_-4/studies")

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, string(apperrors.ErrCodeBadCoordinates), body["code"])
}

func TestDissociateTermsEndpoint(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/dissociate/terms/fear/pain")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "fear", body["term_a"])
	assert.Equal(t, "pain", body["term_b"])
	assert.Equal(t, float64(1), body["count"])

	// Dissociation rows carry the A-side weight under weight_a.
	first := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "s1", first["study_id"])
	assert.Equal(t, 0.9, first["weight_a"])
	assert.NotContains(t, first, "weight")
}

func TestDissociateLocationsEndpoint(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/dissociate/locations/0_0_0/10_-4_2?r=1")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(1), body["radius"])
}

func TestStoreFailureIs500WithMessage(t *testing.T) {
	boom := apperrors.New(apperrors.ErrCodeDatabase, "connection pool exhausted")
	h := testRouter(&testutil.MemStore{Err: boom})
	w := doGet(t, h, "/api/v1/terms/fear/studies")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "connection pool exhausted")
}

func TestHTMLFormatEscapes(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/terms/fear/studies?format=html")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>",
		"stored titles must be escaped")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
}

func TestUnknownFormatIs400(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/api/v1/terms/fear/studies?format=xml")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperrors.ErrCodeBadFormat), decode(t, w)["code"])
}

func TestHealthEndpoints(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	assert.Equal(t, http.StatusOK, doGet(t, h, "/").Code)
	assert.Equal(t, http.StatusOK, doGet(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, doGet(t, h, "/readyz").Code)
}

func TestReadinessFailsWhenStoreDown(t *testing.T) {
	h := testRouter(&testutil.MemStore{
		Fixtures: testFixtures(),
		PingErr:  apperrors.New(apperrors.ErrCodeDatabase, "down"),
	})
	assert.Equal(t, http.StatusOK, doGet(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, doGet(t, h, "/readyz").Code)
}

func TestDebugCorpusGated(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	assert.Equal(t, http.StatusNotFound, doGet(t, h, "/debug/corpus").Code)

	h = testRouter(&testutil.MemStore{Fixtures: testFixtures()},
		func(c *config.Config) { c.Debug.CorpusEndpoint = true })
	w := doGet(t, h, "/debug/corpus")
	require.Equal(t, http.StatusOK, w.Code)
	corpus := decode(t, w)["corpus"].(map[string]any)
	assert.Equal(t, float64(2), corpus["study_count"])
}

func TestRequestIDHeader(t *testing.T) {
	h := testRouter(&testutil.MemStore{Fixtures: testFixtures()})
	w := doGet(t, h, "/healthz")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-chosen")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-chosen", rec.Header().Get("X-Request-ID"))
}
