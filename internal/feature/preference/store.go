// Package preference resolves and updates the language of a chat, keeping an
// in-process cache in front of the persistent store.
package preference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
	"valley_bot/internal/metrics"
)

// Repository is the persistent side of the preference store.
type Repository interface {
	LookupLanguage(ctx context.Context, owner domain.Owner) (domain.Language, bool, error)
	UpdateLanguage(ctx context.Context, owner domain.Owner, lang domain.Language) error
}

// Store resolves languages through the cache and writes through to the
// repository.
type Store struct {
	// writeMu orders persist+cache pairs so the cache matches the last
	// successful write.
	writeMu sync.Mutex
	repo    Repository
	cache   *Cache
	logger  *logrus.Entry
	metrics *metrics.Metrics
}

// Option customizes a Store.
type Option func(*Store)

// WithCache shares an existing cache.
func WithCache(cache *Cache) Option {
	return func(s *Store) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithMetrics records cache hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore constructs a Store over repo.
func NewStore(repo Repository, logger *logrus.Entry, opts ...Option) *Store {
	if logger == nil {
		logger = logging.Logger()
	}

	s := &Store{
		repo:   repo,
		cache:  NewCache(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Resolve returns the language of owner. A cache miss reads the repository;
// a missing row or a storage failure yields the default language. The result
// is always cached before returning.
func (s *Store) Resolve(ctx context.Context, owner domain.Owner) domain.Language {
	if lang, ok := s.cache.Get(owner); ok {
		s.metrics.ObserveLanguageLookup(true)
		return lang
	}
	s.metrics.ObserveLanguageLookup(false)

	lang := domain.DefaultLanguage
	settled := false

	if s.repo == nil || ctx == nil {
		s.logger.WithFields(logging.Fields{
			"event": "language_lookup_unavailable",
			"owner": owner.String(),
		}).Warn("preference repository unavailable, using default language")
		return s.cache.Offer(owner, lang, false)
	}

	stored, found, err := s.repo.LookupLanguage(ctx, owner)
	switch {
	case err != nil:
		s.logger.WithFields(logging.Fields{
			"event": "language_lookup_error",
			"owner": owner.String(),
		}).WithError(err).Error("failed to load language, using default")
	case found && stored.Valid():
		lang = stored
		settled = true
	case found:
		s.logger.WithFields(logging.Fields{
			"event":    "language_invalid",
			"owner":    owner.String(),
			"language": string(stored),
		}).Warn("stored language is not supported, using default")
	}

	// A concurrent Set may have cached a newer value while we were reading.
	return s.cache.Offer(owner, lang, settled)
}

// Set persists lang for owner and then updates the cache. When the write
// fails the cache is left untouched.
func (s *Store) Set(ctx context.Context, owner domain.Owner, lang domain.Language) error {
	if s == nil || s.repo == nil {
		return errors.New("preference store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := owner.Validate(); err != nil {
		return err
	}
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownLanguage, lang)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.UpdateLanguage(ctx, owner, lang); err != nil {
		s.logger.WithFields(logging.Fields{
			"event":    "language_update_error",
			"owner":    owner.String(),
			"language": string(lang),
		}).WithError(err).Error("failed to persist language")
		return fmt.Errorf("update language: %w", err)
	}

	s.cache.Put(owner, lang)

	s.logger.WithFields(logging.Fields{
		"event":    "language_updated",
		"owner":    owner.String(),
		"language": string(lang),
	}).Info("updated chat language")

	return nil
}

// Remember caches lang for owner without touching the repository. The
// registration flow uses it after it has persisted or loaded the row itself,
// so a value cached by a concurrent Set is kept. It returns the language
// cached afterwards.
func (s *Store) Remember(owner domain.Owner, lang domain.Language) domain.Language {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.cache.Offer(owner, lang.OrDefault(), true)
}

// Cached exposes the cache entry for owner.
func (s *Store) Cached(owner domain.Owner) (domain.Language, bool) {
	return s.cache.Get(owner)
}
