package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"grue/internal/model"
	"grue/internal/repository"
	"grue/internal/shortcode"
	"grue/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// retentionWindow is the sliding expiry: a link lives 30 days past its
	// creation or most recent visit, whichever is later.
	retentionWindow = 30 * 24 * time.Hour

	// maxGenerateRetries bounds the collision retry loop on insert.
	maxGenerateRetries = 5

	cacheTTL = 24 * time.Hour
)

// Store is the persistence surface the service needs. *repository.Repo
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetByCode(ctx context.Context, code string) (*model.LinkRecord, error)
	GetByLongURL(ctx context.Context, longURL string) (*model.LinkRecord, error)
	Insert(ctx context.Context, rec *model.LinkRecord) error
	Touch(ctx context.Context, code string, visitedAt time.Time, expiresAt *time.Time) error
}

// ShortenResult is the outcome of a shorten request.
type ShortenResult struct {
	Code     string `json:"short"`
	Link     string `json:"link"`     // full shareable link, DOMAIN/<code>
	LongURL  string `json:"redirect"` // where the short link points
	Existing bool   `json:"-"`        // true when dedup returned a prior record
}

type Service struct {
	Store  Store
	Redis  *redis.Client // may be nil if disabled
	Domain string

	nowFunc func() time.Time
	gen     func() (string, error)
}

func NewService(store Store, rc *redis.Client, domain string) *Service {
	return &Service{
		Store:   store,
		Redis:   rc,
		Domain:  strings.TrimRight(domain, "/"),
		nowFunc: time.Now,
		gen:     shortcode.Generate,
	}
}

// Shorten implements get-or-create: an already-shortened long URL returns
// its existing code untouched (no new write, no expiry reset); a new one
// gets a freshly generated code, retrying on the rare collision.
func (s *Service) Shorten(ctx context.Context, longURL string) (*ShortenResult, error) {
	longURL = strings.TrimSpace(longURL)
	if longURL == "" {
		return nil, ErrEmptyURL
	}
	if !validURL(longURL) {
		return nil, ErrInvalidURL
	}

	existing, err := s.Store.GetByLongURL(ctx, longURL)
	if err == nil {
		return s.result(existing, true), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Error().Err(err).Str("op", "find_by_long_url").Str("url", longURL).Msg("store lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.nowFunc().UTC()
	for attempt := 0; attempt < maxGenerateRetries; attempt++ {
		code, err := s.gen()
		if err != nil {
			return nil, err
		}
		exp := now.Add(retentionWindow)
		rec := &model.LinkRecord{
			LongURL:       longURL,
			ShortCode:     code,
			CreatedAt:     now,
			LastVisitedAt: now,
			ExpiresAt:     &exp,
		}
		err = s.Store.Insert(ctx, rec)
		if err == nil {
			if s.Redis != nil {
				_ = s.Redis.Set(ctx, cacheKey(code), longURL, cacheTTL).Err()
			}
			return s.result(rec, false), nil
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			// another record holds this code; mint a new one
			continue
		}
		logger.Error().Err(err).Str("op", "insert").Str("url", longURL).Msg("store insert failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	logger.Error().Str("url", longURL).Int("retries", maxGenerateRetries).Msg("short code generation exhausted")
	return nil, ErrGenerationExhausted
}

// Resolve returns the long URL for a code and records the visit. The visit
// update is best-effort: its failure is logged, never blocks the redirect.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	now := s.nowFunc().UTC()
	exp := now.Add(retentionWindow)

	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, cacheKey(code)).Result(); err == nil {
			if err := s.Store.Touch(ctx, code, now, &exp); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					// swept while cached; drop the stale entry
					_ = s.Redis.Del(ctx, cacheKey(code)).Err()
					return "", ErrNotFound
				}
				logger.Warn().Err(err).Str("op", "touch").Str("code", code).Msg("visit update failed")
			}
			return val, nil
		}
	}

	rec, err := s.Store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		logger.Error().Err(err).Str("op", "find_by_code").Str("code", code).Msg("store lookup failed")
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, cacheKey(code), rec.LongURL, cacheTTL).Err()
	}
	if err := s.Store.Touch(ctx, code, now, &exp); err != nil {
		logger.Warn().Err(err).Str("op", "touch").Str("code", code).Msg("visit update failed")
	}
	return rec.LongURL, nil
}

func (s *Service) result(rec *model.LinkRecord, existing bool) *ShortenResult {
	return &ShortenResult{
		Code:     rec.ShortCode,
		Link:     s.Domain + "/" + rec.ShortCode,
		LongURL:  rec.LongURL,
		Existing: existing,
	}
}

func cacheKey(code string) string {
	return "short:" + code
}

func validURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
