// Package retrieval is the application layer: it normalizes inputs,
// clamps pagination, composes the cache, and delegates row selection to
// the StudyStore. It never re-orders or filters what the store returns.
package retrieval

import (
	"context"
	"time"

	"github.com/atlaslab/studyatlas/internal/domain/study"
	"github.com/atlaslab/studyatlas/internal/infrastructure/database/redis"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/prometheus"
)

// Operation labels, shared with metrics.
const (
	opTerm            = "term"
	opLocation        = "location"
	opDissocTerms     = "dissoc_term"
	opDissocLocations = "dissoc_location"
)

// TermResult is a term-facet response before rendering.
type TermResult struct {
	TermInput  string               `json:"term_input"`
	Candidates study.TermCandidates `json:"-"`
	// NormalizedCandidates echoes both candidate forms in the payload.
	NormalizedCandidates []string             `json:"normalized_candidates"`
	Fuzzy                bool                 `json:"fuzzy"`
	Rows                 []study.TermStudyRow `json:"rows"`
}

// LocationResult is a location-facet response before rendering.
type LocationResult struct {
	Coordinate study.Point              `json:"coordinate"`
	Radius     float64                  `json:"radius"`
	Rows       []study.LocationStudyRow `json:"rows"`
}

// DissociateTermsResult pairs the two inputs with the surviving rows.
type DissociateTermsResult struct {
	TermA string               `json:"term_a"`
	TermB string               `json:"term_b"`
	Fuzzy bool                 `json:"fuzzy"`
	Rows  []study.TermStudyRow `json:"rows"`
}

// DissociateLocationsResult pairs the two coordinates with the rows.
type DissociateLocationsResult struct {
	CoordinateA study.Point              `json:"coordinate_a"`
	CoordinateB study.Point              `json:"coordinate_b"`
	Radius      float64                  `json:"radius"`
	Rows        []study.LocationStudyRow `json:"rows"`
}

// Service executes the four retrieval operations.
type Service struct {
	store        study.StudyStore
	cache        redis.ResultCache
	metrics      *prometheus.AppMetrics
	logger       logging.Logger
	cachePrefix  string
	defaultLimit int
	maxLimit     int
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache enables the result cache under the given key prefix.
func WithCache(cache redis.ResultCache, prefix string) Option {
	return func(s *Service) {
		s.cache = cache
		s.cachePrefix = prefix
	}
}

// WithMetrics enables query instrumentation.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the retrieval service. defaultLimit and maxLimit bound
// pagination for every operation.
func NewService(store study.StudyStore, defaultLimit, maxLimit int, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		cache:        redis.NewNopCache(),
		logger:       logger,
		cachePrefix:  "studyatlas",
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) clamp(limit, offset int) study.QueryOptions {
	return study.QueryOptions{
		Limit:  study.ClampLimit(limit, s.defaultLimit, s.maxLimit),
		Offset: study.ClampOffset(offset),
	}
}

func (s *Service) observeQuery(op string, start time.Time, rows int, err error) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(op, time.Since(start), rows, err)
	}
}

func (s *Service) observeCache(op string, hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(op, hit)
	}
}

// StudiesByTerm retrieves studies annotated with the given term. The
// exact predicate runs first; when it returns nothing and fuzzy is
// allowed, one prefix-matching retry follows. The result records which
// predicate produced the rows.
func (s *Service) StudiesByTerm(ctx context.Context, rawTerm string, fuzzy bool, limit, offset int) (*TermResult, error) {
	c := study.NormalizeTerm(rawTerm)
	opts := s.clamp(limit, offset)

	result := &TermResult{
		TermInput:            rawTerm,
		Candidates:           c,
		NormalizedCandidates: []string{c.Underscore, c.Space},
	}

	key := redis.Key(s.cachePrefix, opTerm, c.Underscore, fuzzy, opts.Limit, opts.Offset)
	if hit, _ := s.cache.Get(ctx, key, result); hit {
		s.observeCache(opTerm, true)
		return result, nil
	}
	s.observeCache(opTerm, false)

	start := time.Now()
	rows, err := s.store.StudiesByTerm(ctx, c, false, opts)
	if err == nil && len(rows) == 0 && fuzzy {
		rows, err = s.store.StudiesByTerm(ctx, c, true, opts)
		result.Fuzzy = err == nil && len(rows) > 0
	}
	s.observeQuery(opTerm, start, len(rows), err)
	if err != nil {
		return nil, err
	}

	result.Rows = rows
	_ = s.cache.Set(ctx, key, result)
	return result, nil
}

// StudiesByLocation retrieves studies reporting a coordinate matching the
// triplet string at radius r. Malformed triplets fail with a typed
// coordinate error before the store is touched.
func (s *Service) StudiesByLocation(ctx context.Context, coords string, r float64, limit, offset int) (*LocationResult, error) {
	p, err := study.ParsePoint(coords)
	if err != nil {
		return nil, err
	}
	opts := s.clamp(limit, offset)

	result := &LocationResult{Coordinate: p, Radius: r}
	key := redis.Key(s.cachePrefix, opLocation, p.String(), r, opts.Limit, opts.Offset)
	if hit, _ := s.cache.Get(ctx, key, result); hit {
		s.observeCache(opLocation, true)
		return result, nil
	}
	s.observeCache(opLocation, false)

	start := time.Now()
	rows, err := s.store.StudiesByLocation(ctx, p, r, opts)
	s.observeQuery(opLocation, start, len(rows), err)
	if err != nil {
		return nil, err
	}

	result.Rows = rows
	_ = s.cache.Set(ctx, key, result)
	return result, nil
}

// DissociateTerms retrieves studies matching term A with no annotation
// matching term B. The fuzzy flag applies to both sides uniformly so
// inclusion and exclusion use the same predicate.
func (s *Service) DissociateTerms(ctx context.Context, rawA, rawB string, fuzzy bool, limit, offset int) (*DissociateTermsResult, error) {
	ca, cb := study.NormalizeTerm(rawA), study.NormalizeTerm(rawB)
	opts := s.clamp(limit, offset)

	result := &DissociateTermsResult{TermA: rawA, TermB: rawB, Fuzzy: fuzzy}
	key := redis.Key(s.cachePrefix, opDissocTerms, ca.Underscore, cb.Underscore, fuzzy, opts.Limit, opts.Offset)
	if hit, _ := s.cache.Get(ctx, key, result); hit {
		s.observeCache(opDissocTerms, true)
		return result, nil
	}
	s.observeCache(opDissocTerms, false)

	start := time.Now()
	rows, err := s.store.DissociateTerms(ctx, ca, cb, fuzzy, opts)
	s.observeQuery(opDissocTerms, start, len(rows), err)
	if err != nil {
		return nil, err
	}

	result.Rows = rows
	_ = s.cache.Set(ctx, key, result)
	return result, nil
}

// DissociateLocations retrieves studies with a coordinate matching A and
// none matching B, both at radius r. r defaults to exact mode (0) at the
// transport layer.
func (s *Service) DissociateLocations(ctx context.Context, coordsA, coordsB string, r float64, limit, offset int) (*DissociateLocationsResult, error) {
	pa, err := study.ParsePoint(coordsA)
	if err != nil {
		return nil, err
	}
	pb, err := study.ParsePoint(coordsB)
	if err != nil {
		return nil, err
	}
	opts := s.clamp(limit, offset)

	result := &DissociateLocationsResult{CoordinateA: pa, CoordinateB: pb, Radius: r}
	key := redis.Key(s.cachePrefix, opDissocLocations, pa.String(), pb.String(), r, opts.Limit, opts.Offset)
	if hit, _ := s.cache.Get(ctx, key, result); hit {
		s.observeCache(opDissocLocations, true)
		return result, nil
	}
	s.observeCache(opDissocLocations, false)

	start := time.Now()
	rows, err := s.store.DissociateLocations(ctx, pa, pb, r, opts)
	s.observeQuery(opDissocLocations, start, len(rows), err)
	if err != nil {
		return nil, err
	}

	result.Rows = rows
	_ = s.cache.Set(ctx, key, result)
	return result, nil
}

// CorpusStats proxies the store diagnostic for the debug endpoint.
func (s *Service) CorpusStats(ctx context.Context) (*study.CorpusStats, error) {
	return s.store.CorpusStats(ctx)
}

// Ping proxies store reachability for readiness probes.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
