package geocode

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"
)

// ErrNotFound means the input did not resolve to any address.
var ErrNotFound = errors.New("address not found")

// Result is a verified address ready for dispatch.
type Result struct {
	FormattedAddress string
	Latitude         float64
	Longitude        float64
	Confidence       string
}

// Service resolves messy caller-provided addresses into coordinates via the
// Google Geocoding API.
type Service struct {
	client *maps.Client
}

// NewService creates a Service with the given API key.
func NewService(apiKey string) (*Service, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Service{client: client}, nil
}

// Geocode returns the best match for a free-form address string.
func (s *Service) Geocode(ctx context.Context, input string) (*Result, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: input})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", input, err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	best := results[0]
	return &Result{
		FormattedAddress: best.FormattedAddress,
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
		Confidence:       confidenceFor(best.Geometry.LocationType),
	}, nil
}

// confidenceFor maps the geometry precision to the coarse confidence labels
// the voice agent understands.
func confidenceFor(locationType string) string {
	switch locationType {
	case "ROOFTOP":
		return "exact"
	case "RANGE_INTERPOLATED":
		return "interpolated"
	case "GEOMETRIC_CENTER":
		return "approximate"
	default:
		return "low"
	}
}
