package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/models"
)

var ErrNoResults = errors.New("no geocoding results")

const (
	cacheTTL         = 30 * 24 * time.Hour
	negativeCacheTTL = time.Hour
)

// Point is a WGS84 coordinate pair
type Point struct {
	Lat float64
	Lon float64
}

type cachedPoint struct {
	point Point
	found bool
}

type Geocoder struct {
	logger    *logrus.Logger
	baseURL   string
	userAgent string
	cache     *ccache.Cache[cachedPoint]
	client    *http.Client

	// Nominatim's usage policy allows one request per second
	minInterval time.Duration
	throttle    sync.Mutex
	lastRequest time.Time
}

func NewGeocoder(logger *logrus.Logger, baseURL, userAgent string) *Geocoder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Geocoder{
		logger:      logger,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		cache:       ccache.New(ccache.Configure[cachedPoint]().MaxSize(5000)),
		client:      &http.Client{Timeout: 10 * time.Second},
		minInterval: time.Second,
	}
}

// Stop releases the cache's background worker
func (g *Geocoder) Stop() {
	g.cache.Stop()
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// GeocodeProperty looks up the property's address
func (g *Geocoder) GeocodeProperty(ctx context.Context, p *models.Property) (Point, error) {
	return g.GeocodeAddress(ctx, p.Address())
}

func (g *Geocoder) GeocodeAddress(ctx context.Context, address string) (Point, error) {
	cacheKey := strings.ToLower(strings.TrimSpace(address))
	if cacheKey == "" {
		return Point{}, ErrNoResults
	}

	// Check cache first
	if item := g.cache.Get(cacheKey); item != nil && !item.Expired() {
		cached := item.Value()
		g.logger.WithFields(logrus.Fields{"address": address, "source": "cache"}).Debug("Found coordinates in cache")
		if !cached.found {
			return Point{}, ErrNoResults
		}
		return cached.point, nil
	}

	if err := g.wait(ctx); err != nil {
		return Point{}, err
	}

	params := url.Values{
		"q":      []string{address},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", address).Error("Geocoding request failed")
		return Point{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		g.logger.WithError(err).WithField("address", address).Error("Failed to parse response")
		return Point{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result) == 0 {
		g.logger.WithField("address", address).Warn("No results found")
		g.cache.Set(cacheKey, cachedPoint{}, negativeCacheTTL)
		return Point{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}
	point := Point{Lat: lat, Lon: lon}

	g.logger.WithFields(logrus.Fields{
		"address":   address,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	g.cache.Set(cacheKey, cachedPoint{point: point, found: true}, cacheTTL)
	return point, nil
}

// wait spaces requests at least minInterval apart
func (g *Geocoder) wait(ctx context.Context) error {
	g.throttle.Lock()
	defer g.throttle.Unlock()

	if delay := g.minInterval - time.Since(g.lastRequest); delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	g.lastRequest = time.Now()
	return nil
}

// CoordinateStore persists geocoding results
type CoordinateStore interface {
	PropertiesMissingCoordinates(limit int) ([]models.Property, error)
	SetCoordinates(id uint, lat, lon float64) error
}

// Backfiller geocodes stored properties that have no coordinates yet
type Backfiller struct {
	geocoder *Geocoder
	store    CoordinateStore
	logger   *logrus.Logger
}

func NewBackfiller(geocoder *Geocoder, store CoordinateStore, logger *logrus.Logger) *Backfiller {
	return &Backfiller{geocoder: geocoder, store: store, logger: logger}
}

// Backfill geocodes up to limit properties and returns how many got
// coordinates. Addresses without a match are skipped.
func (b *Backfiller) Backfill(ctx context.Context, limit int) (int, error) {
	properties, err := b.store.PropertiesMissingCoordinates(limit)
	if err != nil {
		return 0, err
	}

	geocoded := 0
	for i := range properties {
		p := &properties[i]
		point, err := b.geocoder.GeocodeProperty(ctx, p)
		if errors.Is(err, ErrNoResults) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return geocoded, ctx.Err()
			}
			b.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode property")
			continue
		}
		if err := b.store.SetCoordinates(p.ID, point.Lat, point.Lon); err != nil {
			return geocoded, err
		}
		geocoded++
	}
	return geocoded, nil
}
