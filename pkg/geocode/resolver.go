// Package geocode resolves parking addresses to coordinates through a
// Nominatim-compatible search endpoint, with Redis and database caches in
// front of it.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

const redisKeyPrefix = "geocode:"

type Config struct {
	URL         string
	UserAgent   string
	CountryHint string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

type Resolver struct {
	cfg   Config
	http  *http.Client
	redis *redis.Client
	cache storage.IGeocodeStorage
	log   logger.ILogger
}

// New builds a resolver. rdb and cache may be nil.
func New(cfg Config, rdb *redis.Client, cache storage.IGeocodeStorage, log logger.ILogger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Resolver{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		redis: rdb,
		cache: cache,
		log:   log,
	}
}

type place struct {
	Lat any `json:"lat"`
	Lon any `json:"lon"`
}

// Resolve never fails. An address that cannot be resolved, or any
// transport error, yields nil coordinates.
func (r *Resolver) Resolve(ctx context.Context, addr models.Address) (*float64, *float64) {
	query := addr.Query(r.cfg.CountryHint)
	if strings.TrimSpace(addr.Address) == "" {
		return nil, nil
	}

	if lat, lon, ok := r.fromRedis(ctx, query); ok {
		return &lat, &lon
	}
	if r.cache != nil {
		e, err := r.cache.Get(ctx, query)
		if err == nil {
			r.toRedis(ctx, query, e.Latitude, e.Longitude)
			return &e.Latitude, &e.Longitude
		}
		if !errors.Is(err, storage.ErrNotFound) {
			r.log.Warning("geocode cache read failed", logger.Error(err))
		}
	}

	lat, lon, err := r.search(ctx, query)
	if err != nil {
		r.log.Warning("geocoding failed", logger.String("query", query), logger.Error(err))
		return nil, nil
	}

	if r.cache != nil {
		_ = r.cache.Put(ctx, &models.GeocodeEntry{Query: query, Latitude: lat, Longitude: lon})
	}
	r.toRedis(ctx, query, lat, lon)
	return &lat, &lon
}

func (r *Resolver) search(ctx context.Context, query string) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(r.cfg.URL)
	if err != nil {
		return 0, 0, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoder returned %s", resp.Status)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return 0, 0, err
	}
	if len(places) == 0 {
		return 0, 0, errors.New("no match")
	}

	lat, err := cast.ToFloat64E(places[0].Lat)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude: %w", err)
	}
	lon, err := cast.ToFloat64E(places[0].Lon)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude: %w", err)
	}
	return lat, lon, nil
}

func (r *Resolver) fromRedis(ctx context.Context, query string) (float64, float64, bool) {
	if r.redis == nil {
		return 0, 0, false
	}
	val, err := r.redis.Get(ctx, redisKeyPrefix+query).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warning("redis geocode read failed", logger.Error(err))
		}
		return 0, 0, false
	}

	parts := strings.SplitN(val, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := cast.ToFloat64E(parts[0])
	lon, err2 := cast.ToFloat64E(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func (r *Resolver) toRedis(ctx context.Context, query string, lat, lon float64) {
	if r.redis == nil {
		return
	}
	val := cast.ToString(lat) + "," + cast.ToString(lon)
	if err := r.redis.Set(ctx, redisKeyPrefix+query, val, r.cfg.CacheTTL).Err(); err != nil {
		r.log.Warning("redis geocode write failed", logger.Error(err))
	}
}
