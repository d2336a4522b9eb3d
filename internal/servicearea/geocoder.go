package servicearea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrLookupFailed is returned when the geocoding endpoint cannot be
// reached or answers badly. Callers degrade to an empty candidate list.
var ErrLookupFailed = errors.New("address lookup failed")

// Geocoder resolves free-text address queries into candidates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// HTTPGeocoder queries a Photon-compatible geocoding endpoint
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
	limit   int
}

// NewHTTPGeocoder creates a geocoder against the given base URL,
// e.g. "https://photon.komoot.io".
func NewHTTPGeocoder(baseURL string, timeout time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limit:   5,
	}
}

// photonResponse mirrors the GeoJSON feature collection the endpoint returns
type photonResponse struct {
	Features []struct {
		Properties struct {
			Name     string `json:"name"`
			Street   string `json:"street"`
			City     string `json:"city"`
			State    string `json:"state"`
			Postcode string `json:"postcode"`
		} `json:"properties"`
	} `json:"features"`
}

func (g *HTTPGeocoder) Search(ctx context.Context, query string) ([]Candidate, error) {
	u := fmt.Sprintf("%s/api?q=%s&limit=%d", g.baseURL, url.QueryEscape(query), g.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoder request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: bad response: %v", ErrLookupFailed, err)
	}

	candidates := make([]Candidate, 0, len(body.Features))
	for _, f := range body.Features {
		p := f.Properties
		display := p.Name
		if p.Street != "" && p.Street != p.Name {
			display = fmt.Sprintf("%s, %s", p.Name, p.Street)
		}
		if p.City != "" {
			display = fmt.Sprintf("%s, %s", display, p.City)
		}
		if p.State != "" {
			display = fmt.Sprintf("%s, %s", display, p.State)
		}
		candidates = append(candidates, Candidate{
			Display: display,
			City:    p.City,
			State:   p.State,
		})
	}
	return candidates, nil
}
