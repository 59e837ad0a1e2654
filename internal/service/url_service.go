package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"url-shortener/internal/db"
	"url-shortener/internal/metrics"
	"url-shortener/internal/shortener"

	"go.uber.org/zap"
)

// DefaultMaxInsertAttempts bounds how often Shorten regenerates a code after losing an insert race.
const DefaultMaxInsertAttempts = 3

// deletedMarker is cached in place of a deleted record's URL. It cannot parse as a URL,
// so it never collides with a stored value.
const deletedMarker = "\x00deleted"

var (
	ErrValidation  = errors.New("validation failed")
	ErrURLRequired = fmt.Errorf("%w: url is required", ErrValidation)
	ErrInvalidURL  = fmt.Errorf("%w: url must be an absolute URL", ErrValidation)

	ErrNotFound  = errors.New("url not found")
	ErrForbidden = errors.New("url belongs to another user")
	ErrConflict  = errors.New("could not allocate a unique short code")
	ErrStore     = errors.New("store failure")
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(record *db.URLRecord) error
	FindByID(id uint) (*db.URLRecord, error)
	FindByShortCode(code string) (*db.URLRecord, error)
	FindAllByUserID(userID uint) ([]db.URLRecord, error)
	ShortCodeExists(code string) (bool, error)
	Delete(id uint) error
}

// Cache is an optional read-through cache for redirects.
// SetNX must not overwrite an existing entry; Set always does.
type Cache interface {
	Get(ctx context.Context, code string) (string, bool, error)
	Set(ctx context.Context, code, value string) error
	SetNX(ctx context.Context, code, value string) (bool, error)
}

type Options struct {
	// BaseURL prefixes every returned short URL, e.g. http://localhost:8080.
	BaseURL           string
	MaxInsertAttempts int
	// Cache may be nil.
	Cache Cache
}

// URLService implements the shorten, list, resolve and delete operations.
type URLService struct {
	store             Store
	codes             *shortener.Generator
	cache             Cache
	baseURL           string
	maxInsertAttempts int
	logger            *zap.Logger
}

func NewURLService(store Store, codes *shortener.Generator, opts Options, logger *zap.Logger) *URLService {
	if opts.MaxInsertAttempts <= 0 {
		opts.MaxInsertAttempts = DefaultMaxInsertAttempts
	}
	return &URLService{
		store:             store,
		codes:             codes,
		cache:             opts.Cache,
		baseURL:           opts.BaseURL,
		maxInsertAttempts: opts.MaxInsertAttempts,
		logger:            logger.Named("url_service"),
	}
}

// ValidateURL accepts only absolute URLs carrying both a scheme and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return ErrURLRequired
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return ErrInvalidURL
	}
	return nil
}

// Shorten stores rawURL under a fresh short code and returns the full short URL.
// An ownerID of zero stores the record without an owner.
func (s *URLService) Shorten(ctx context.Context, rawURL string, ownerID uint) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	var owner *uint
	if ownerID != 0 {
		owner = &ownerID
	}

	for attempt := 1; attempt <= s.maxInsertAttempts; attempt++ {
		code, err := s.codes.Generate(s.codeTaken)
		if err != nil {
			if errors.Is(err, shortener.ErrGenerationExhausted) {
				s.logger.Error("short code space exhausted", zap.Error(err))
				return "", fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return "", fmt.Errorf("%w: %w", ErrStore, err)
		}

		record := &db.URLRecord{OriginalURL: rawURL, ShortCode: code, UserID: owner}
		err = s.store.Create(record)
		if errors.Is(err, db.ErrDuplicateShortCode) {
			metrics.ShortCodeCollisions.WithLabelValues("insert").Inc()
			s.logger.Warn("short code insert collided, retrying",
				zap.String("short_code", code),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: creating url record: %w", ErrStore, err)
		}

		s.logger.Info("url shortened",
			zap.Uint("id", record.ID),
			zap.String("short_code", code),
			zap.Uint("user_id", ownerID))
		return s.shortURL(code)
	}

	return "", fmt.Errorf("%w after %d insert attempts", ErrConflict, s.maxInsertAttempts)
}

// ListForOwner returns every record owned by ownerID in insertion order.
func (s *URLService) ListForOwner(ctx context.Context, ownerID uint) ([]db.URLRecord, error) {
	records, err := s.store.FindAllByUserID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing urls: %w", ErrStore, err)
	}
	return records, nil
}

// Resolve returns the original URL behind code. It never mutates state beyond the cache.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	if !shortener.IsValidCode(code) {
		return "", ErrNotFound
	}

	fill := s.cache != nil
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, code)
		switch {
		case err != nil:
			s.logger.Warn("redirect cache read failed", zap.Error(err), zap.String("short_code", code))
		case hit && cached == deletedMarker:
			// recently deleted; the store decides, and the marker stays until it expires
			fill = false
		case hit:
			return cached, nil
		}
	}

	record, err := s.store.FindByShortCode(code)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", ErrStore, code, err)
	}

	// SetNX so a fill racing a delete cannot replace the delete's marker
	if fill {
		if _, err := s.cache.SetNX(ctx, code, record.OriginalURL); err != nil {
			s.logger.Warn("redirect cache write failed", zap.Error(err), zap.String("short_code", code))
		}
	}
	return record.OriginalURL, nil
}

// Delete removes record id if requesterID owns it.
func (s *URLService) Delete(ctx context.Context, id, requesterID uint) error {
	record, err := s.store.FindByID(id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: loading url %d: %w", ErrStore, id, err)
	}

	if !record.OwnedBy(requesterID) {
		s.logger.Info("delete refused for non-owner",
			zap.Uint("id", id),
			zap.Uint("requester_id", requesterID))
		return ErrForbidden
	}

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: deleting url %d: %w", ErrStore, id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, record.ShortCode, deletedMarker); err != nil {
			s.logger.Warn("redirect cache invalidation failed", zap.Error(err), zap.String("short_code", record.ShortCode))
		}
	}

	s.logger.Info("url deleted", zap.Uint("id", id), zap.String("short_code", record.ShortCode))
	return nil
}

func (s *URLService) codeTaken(code string) (bool, error) {
	taken, err := s.store.ShortCodeExists(code)
	if taken {
		metrics.ShortCodeCollisions.WithLabelValues("precheck").Inc()
	}
	return taken, err
}

func (s *URLService) shortURL(code string) (string, error) {
	u, err := url.JoinPath(s.baseURL, code)
	if err != nil {
		return "", fmt.Errorf("building short url: %w", err)
	}
	return u, nil
}
