package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

// Open-Meteo endpoints.
const (
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	endpointGeocode  = "geocode"
	endpointForecast = "forecast"

	currentFields = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"
)

// Place is a resolved location.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Conditions are the current weather at a place.
type Conditions struct {
	Temperature float64
	Humidity    float64
	WeatherCode int
	WindSpeed   float64
}

// GeocodeCache stores resolved places by location. Implementations must
// report a miss as (Place{}, false, nil).
type GeocodeCache interface {
	Get(ctx context.Context, location string) (Place, bool, error)
	Set(ctx context.Context, location string, place Place) error
}

// Weather looks up current conditions for a city.
type Weather struct {
	client      *http.Client
	geocodeURL  string
	forecastURL string
	timeout     time.Duration
	cache       GeocodeCache
	logger      *slog.Logger
}

// WeatherOption configures Weather.
type WeatherOption func(*Weather)

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) WeatherOption {
	return func(w *Weather) { w.client = c }
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) WeatherOption {
	return func(w *Weather) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithGeocodeURL overrides the geocoding endpoint.
func WithGeocodeURL(u string) WeatherOption {
	return func(w *Weather) { w.geocodeURL = u }
}

// WithForecastURL overrides the forecast endpoint.
func WithForecastURL(u string) WeatherOption {
	return func(w *Weather) { w.forecastURL = u }
}

// WithGeocodeCache enables caching of resolved places.
func WithGeocodeCache(c GeocodeCache) WeatherOption {
	return func(w *Weather) { w.cache = c }
}

// WithWeatherLogger sets the logger.
func WithWeatherLogger(l *slog.Logger) WeatherOption {
	return func(w *Weather) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWeather creates a weather tool using the public Open-Meteo API.
func NewWeather(opts ...WeatherOption) *Weather {
	w := &Weather{
		geocodeURL:  DefaultGeocodeURL,
		forecastURL: DefaultForecastURL,
		timeout:     DefaultHTTPTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: w.timeout}
	}
	return w
}

// Name implements Tool.
func (w *Weather) Name() string { return NameWeather }

// Fallback implements Tool.
func (w *Weather) Fallback() string {
	return "Weather information is currently unavailable."
}

// Call implements Tool. location must be letters, spaces, hyphens or
// apostrophes.
func (w *Weather) Call(ctx context.Context, location string) (string, error) {
	location = strings.TrimSpace(location)
	if err := fgerrors.Validate(w.logger, "location", location, isLocation,
		"location must be a non-empty city name of letters, spaces, hyphens or apostrophes"); err != nil {
		return "", err
	}

	place, found, err := w.Resolve(ctx, location)
	if err != nil {
		return "", err
	}
	if !found {
		return "City not found: " + location, nil
	}

	cond, err := w.Current(ctx, place)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("In %s, it is %s°C with %s. Humidity: %s%%, Wind: %s km/h",
		place.Name,
		formatMeasure(cond.Temperature),
		DescribeWeatherCode(cond.WeatherCode),
		formatMeasure(cond.Humidity),
		formatMeasure(cond.WindSpeed),
	), nil
}

func isLocation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r):
		case r == ' ', r == '-', r == '\'', r == '’':
		default:
			return false
		}
	}
	return true
}

type geocodeResponse struct {
	Results []struct {
		Name      string   `json:"name"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"results"`
}

// Resolve geocodes location, consulting the cache first. found is false
// when the service has no match.
func (w *Weather) Resolve(ctx context.Context, location string) (place Place, found bool, err error) {
	if w.cache != nil {
		cached, hit, cacheErr := w.cache.Get(ctx, location)
		switch {
		case cacheErr != nil:
			w.logger.Warn("geocode cache read failed",
				slog.String("location", location),
				slog.String("error", cacheErr.Error()))
		case hit:
			w.logger.Debug("geocode cache hit", slog.String("location", location))
			return cached, true, nil
		}
	}

	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")
	q.Set("language", "fr")
	q.Set("format", "json")

	var body geocodeResponse
	if err := w.getJSON(ctx, endpointGeocode, w.geocodeURL+"?"+q.Encode(), &body); err != nil {
		return Place{}, false, err
	}
	if len(body.Results) == 0 {
		return Place{}, false, nil
	}

	r := body.Results[0]
	if r.Latitude == nil || r.Longitude == nil {
		return Place{}, false, &fgerrors.MalformedResponseError{
			Endpoint: endpointGeocode,
			Message:  "result has no coordinates",
		}
	}
	place = Place{Name: r.Name, Latitude: *r.Latitude, Longitude: *r.Longitude}
	if place.Name == "" {
		place.Name = location
	}

	if w.cache != nil {
		if err := w.cache.Set(ctx, location, place); err != nil {
			w.logger.Warn("geocode cache write failed",
				slog.String("location", location),
				slog.String("error", err.Error()))
		}
	}
	return place, true, nil
}

type forecastResponse struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
		Humidity    *float64 `json:"relative_humidity_2m"`
		WeatherCode *float64 `json:"weather_code"`
		WindSpeed   *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current fetches the current conditions at place.
func (w *Weather) Current(ctx context.Context, place Place) (Conditions, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	q.Set("current", currentFields)
	q.Set("timezone", "auto")
	q.Set("language", "fr")

	var body forecastResponse
	if err := w.getJSON(ctx, endpointForecast, w.forecastURL+"?"+q.Encode(), &body); err != nil {
		return Conditions{}, err
	}

	c := body.Current
	missing := func(field string) error {
		return &fgerrors.MalformedResponseError{Endpoint: endpointForecast, Message: "missing current." + field}
	}
	switch {
	case c == nil:
		return Conditions{}, &fgerrors.MalformedResponseError{Endpoint: endpointForecast, Message: "missing current"}
	case c.Temperature == nil:
		return Conditions{}, missing("temperature_2m")
	case c.Humidity == nil:
		return Conditions{}, missing("relative_humidity_2m")
	case c.WeatherCode == nil:
		return Conditions{}, missing("weather_code")
	case c.WindSpeed == nil:
		return Conditions{}, missing("wind_speed_10m")
	}

	return Conditions{
		Temperature: *c.Temperature,
		Humidity:    *c.Humidity,
		WeatherCode: int(*c.WeatherCode),
		WindSpeed:   *c.WindSpeed,
	}, nil
}

// getJSON performs a GET and decodes the body into out, mapping each
// failure onto its error kind.
func (w *Weather) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &fgerrors.ConnectionError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return fmt.Errorf("%s: %w", endpoint, ctx.Err())
		case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
			return &fgerrors.TimeoutError{Operation: endpoint, Duration: w.timeout, Err: err}
		default:
			return &fgerrors.ConnectionError{Endpoint: endpoint, Err: err}
		}
	}
	defer resp.Body.Close()

	w.logger.Debug("upstream response",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &fgerrors.HTTPError{StatusCode: resp.StatusCode, Message: msg, Endpoint: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) && netErr.Timeout() {
			return &fgerrors.TimeoutError{Operation: endpoint, Duration: w.timeout, Err: err}
		}
		return &fgerrors.MalformedResponseError{Endpoint: endpoint, Message: "decode body", Err: err}
	}
	return nil
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
