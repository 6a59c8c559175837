package form

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Locator failure reasons.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location request timed out")
)

// PositionOptions mirrors the hints a browser accepts for a position fix.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// DefaultPositionOptions asks for a fresh, precise fix within ten seconds.
var DefaultPositionOptions = PositionOptions{
	HighAccuracy: true,
	Timeout:      10 * time.Second,
	MaxAge:       0,
}

// Position is a device location in decimal degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Locator obtains the current position.
type Locator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// Locate fills the coordinate fields from loc and returns the notice to
// show. The fields are untouched on failure.
func (c *Collector) Locate(ctx context.Context, loc Locator) *Notice {
	if loc == nil {
		return ErrNoGeolocation
	}

	opts := DefaultPositionOptions
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	pos, err := loc.CurrentPosition(ctx, opts)
	if err != nil {
		return locateFailed(err)
	}

	c.Latitude = strconv.FormatFloat(pos.Latitude, 'f', 6, 64)
	c.Longitude = strconv.FormatFloat(pos.Longitude, 'f', 6, 64)
	return Located
}

func locateFailed(err error) *Notice {
	msg := "No se pudo obtener la ubicación"
	switch {
	case errors.Is(err, ErrPermissionDenied):
		msg = "Permiso de ubicación denegado"
	case errors.Is(err, ErrPositionUnavailable):
		msg = "Ubicación no disponible"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		msg = "Tiempo de espera agotado"
	}
	return &Notice{
		Title:       "Error de geolocalización",
		Description: msg,
		Destructive: true,
		cause:       err,
	}
}

const defaultLocateURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// HTTPLocator resolves the position of the current network address
// through an ip-api compatible JSON endpoint.
type HTTPLocator struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPLocator creates a locator for endpoint, or the public ip-api
// service when endpoint is empty.
func NewHTTPLocator(endpoint string) *HTTPLocator {
	if endpoint == "" {
		endpoint = defaultLocateURL
	}
	return &HTTPLocator{
		httpClient: &http.Client{},
		endpoint:   endpoint,
	}
}

// locateResponse is the response from the ip-api endpoint.
type locateResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentPosition implements Locator. The accuracy and age hints do not
// apply to address lookups and are ignored.
func (l *HTTPLocator) CurrentPosition(ctx context.Context, opts PositionOptions) (pos Position, err error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Position{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Position{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Position{}, fmt.Errorf("%w: status %d", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Position{}, fmt.Errorf("%w: status %d", ErrPositionUnavailable, resp.StatusCode)
	}

	var result locateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Position{}, fmt.Errorf("%w: decoding response: %v", ErrPositionUnavailable, err)
	}
	if result.Status != "success" {
		return Position{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, result.Message)
	}

	return Position{Latitude: result.Lat, Longitude: result.Lon}, nil
}
