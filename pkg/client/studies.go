package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Point mirrors the server's coordinate representation.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TermStudy is one row of a term-facet result.
type TermStudy struct {
	StudyID   string   `json:"study_id"`
	Title     string   `json:"title"`
	Journal   string   `json:"journal"`
	Year      *int     `json:"year"`
	Term      string   `json:"term"`
	CleanTerm string   `json:"clean_term"`
	Weight    *float64 `json:"weight"`
}

// LocationStudy is one row of a location-facet result.
type LocationStudy struct {
	StudyID string `json:"study_id"`
	Title   string `json:"title"`
	Journal string `json:"journal"`
	Year    *int   `json:"year"`
	Example Point  `json:"example_coordinate"`
}

// TermStudiesResponse is the term retrieval envelope.
type TermStudiesResponse struct {
	OK                   bool        `json:"ok"`
	TermInput            string      `json:"term_input"`
	NormalizedCandidates []string    `json:"normalized_candidates"`
	Fuzzy                bool        `json:"fuzzy"`
	Count                int         `json:"count"`
	Items                []TermStudy `json:"items"`
}

// LocationStudiesResponse is the location retrieval envelope.
type LocationStudiesResponse struct {
	OK         bool            `json:"ok"`
	Coordinate Point           `json:"coordinate"`
	Radius     float64         `json:"radius"`
	Count      int             `json:"count"`
	Items      []LocationStudy `json:"items"`
}

// DissociateTermStudy is one row of a term dissociation result. The
// weight is the A-side match weight.
type DissociateTermStudy struct {
	StudyID   string   `json:"study_id"`
	Title     string   `json:"title"`
	Journal   string   `json:"journal"`
	Year      *int     `json:"year"`
	Term      string   `json:"term"`
	CleanTerm string   `json:"clean_term"`
	WeightA   *float64 `json:"weight_a"`
}

// DissociateTermsResponse is the term dissociation envelope.
type DissociateTermsResponse struct {
	OK    bool                  `json:"ok"`
	TermA string                `json:"term_a"`
	TermB string                `json:"term_b"`
	Fuzzy bool                  `json:"fuzzy"`
	Count int                   `json:"count"`
	Items []DissociateTermStudy `json:"items"`
}

// DissociateLocationsResponse is the location dissociation envelope.
type DissociateLocationsResponse struct {
	OK          bool            `json:"ok"`
	CoordinateA Point           `json:"coordinate_a"`
	CoordinateB Point           `json:"coordinate_b"`
	Radius      float64         `json:"radius"`
	Count       int             `json:"count"`
	Items       []LocationStudy `json:"items"`
}

// PageOptions carries pagination; zero values take server defaults.
type PageOptions struct {
	Limit  int
	Offset int
}

func (p PageOptions) values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// StudiesByTerm retrieves studies annotated with term.
func (c *Client) StudiesByTerm(ctx context.Context, term string, fuzzy bool, page PageOptions) (*TermStudiesResponse, error) {
	q := page.values()
	q.Set("fuzzy", strconv.FormatBool(fuzzy))
	var out TermStudiesResponse
	path := fmt.Sprintf("/api/v1/terms/%s/studies", url.PathEscape(term))
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StudiesByLocation retrieves studies reporting a coordinate near p.
func (c *Client) StudiesByLocation(ctx context.Context, p Point, radius float64, page PageOptions) (*LocationStudiesResponse, error) {
	q := page.values()
	if radius > 0 {
		q.Set("r", strconv.FormatFloat(radius, 'g', -1, 64))
	}
	var out LocationStudiesResponse
	path := fmt.Sprintf("/api/v1/locations/%s/studies", formatPoint(p))
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DissociateTerms retrieves studies matching termA with no annotation
// matching termB.
func (c *Client) DissociateTerms(ctx context.Context, termA, termB string, fuzzy bool, page PageOptions) (*DissociateTermsResponse, error) {
	q := page.values()
	q.Set("fuzzy", strconv.FormatBool(fuzzy))
	var out DissociateTermsResponse
	path := fmt.Sprintf("/api/v1/dissociate/terms/%s/%s",
		url.PathEscape(termA), url.PathEscape(termB))
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DissociateLocations retrieves studies with a coordinate near a and none
// near b.
func (c *Client) DissociateLocations(ctx context.Context, a, b Point, radius float64, page PageOptions) (*DissociateLocationsResponse, error) {
	q := page.values()
	if radius > 0 {
		q.Set("r", strconv.FormatFloat(radius, 'g', -1, 64))
	}
	var out DissociateLocationsResponse
	path := fmt.Sprintf("/api/v1/dissociate/locations/%s/%s", formatPoint(a), formatPoint(b))
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Healthy reports whether the server passes its readiness probe.
func (c *Client) Healthy(ctx context.Context) error {
	return c.get(ctx, "/readyz", nil, nil)
}

func formatPoint(p Point) string {
	return fmt.Sprintf("%s_%s_%s",
		strconv.FormatFloat(p.X, 'g', -1, 64),
		strconv.FormatFloat(p.Y, 'g', -1, 64),
		strconv.FormatFloat(p.Z, 'g', -1, 64))
}
