package geo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Cheertaboi/delivery-order-service/internal/cache"
	"github.com/Cheertaboi/delivery-order-service/internal/models"
	"github.com/Cheertaboi/delivery-order-service/internal/normalize"
)

// Geocoder resolves a free-text address. It never fails the caller: any
// problem is reported as ok == false.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (coords models.Coordinates, ok bool)
}

// NoopGeocoder is used when geocoding is disabled; every lookup misses.
type NoopGeocoder struct{}

func (NoopGeocoder) Geocode(context.Context, string) (models.Coordinates, bool) {
	return models.Coordinates{}, false
}

var errNoResults = errors.New("no geocoding results")

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "delivery-order-service/1.0"
)

// NominatimGeocoder queries an OpenStreetMap Nominatim server.
type NominatimGeocoder struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	countryCodes string
	timeout      time.Duration
	limiter      *rate.Limiter
	log          *zap.Logger
}

// Option configures a NominatimGeocoder.
type Option func(*NominatimGeocoder)

func WithBaseURL(baseURL string) Option {
	return func(g *NominatimGeocoder) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *NominatimGeocoder) {
		g.httpClient = c
	}
}

func WithUserAgent(ua string) Option {
	return func(g *NominatimGeocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithCountryCodes restricts results, e.g. "br".
func WithCountryCodes(codes string) Option {
	return func(g *NominatimGeocoder) {
		g.countryCodes = codes
	}
}

// WithTimeout bounds a single lookup, including time spent waiting on the rate limiter.
func WithTimeout(d time.Duration) Option {
	return func(g *NominatimGeocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. The public Nominatim
// usage policy allows one.
func WithRateLimit(perSecond float64) Option {
	return func(g *NominatimGeocoder) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewNominatimGeocoder(log *zap.Logger, opts ...Option) *NominatimGeocoder {
	g := &NominatimGeocoder{
		httpClient: &http.Client{},
		baseURL:    DefaultNominatimURL,
		userAgent:  defaultUserAgent,
		timeout:    5 * time.Second,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		log:        log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coordinates{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	coords, err := g.lookup(ctx, address)
	if err != nil {
		if errors.Is(err, errNoResults) {
			g.log.Debug("address not found by geocoder", zap.String("address", address))
		} else {
			g.log.Warn("geocoding failed", zap.String("address", address), zap.Error(err))
		}
		return models.Coordinates{}, false
	}
	return coords, true
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) lookup(ctx context.Context, address string) (models.Coordinates, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, errors.Wrap(err, "rate limiter")
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	if g.countryCodes != "" {
		q.Set("countrycodes", g.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, errors.Wrap(err, "nominatim request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Coordinates{}, errors.Errorf("nominatim returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Coordinates{}, errors.Wrap(err, "decode nominatim response")
	}
	if len(results) == 0 {
		return models.Coordinates{}, errNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, errors.Wrapf(err, "parse lat %q", results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, errors.Wrapf(err, "parse lon %q", results[0].Lon)
	}
	return models.Coordinates{Lat: lat, Lng: lng}, nil
}

// CachedGeocoder memoizes successful lookups of another Geocoder.
// Misses are not cached since most are transient.
type CachedGeocoder struct {
	next  Geocoder
	cache *cache.AddressCache
}

func NewCachedGeocoder(next Geocoder, c *cache.AddressCache) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: c}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, bool) {
	key := normalize.Text(address)
	if key == "" {
		return models.Coordinates{}, false
	}
	if coords, ok := g.cache.Get(key); ok {
		return coords, true
	}
	coords, ok := g.next.Geocode(ctx, address)
	if ok {
		g.cache.Set(key, coords)
	}
	return coords, ok
}
