// Package registration creates the preference and point ledger rows of a
// chat on first contact.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
	"valley_bot/internal/metrics"
)

// Repository creates both rows of an owner as one unit. When the owner already
// exists it returns the stored language with Created=false.
type Repository interface {
	Register(ctx context.Context, owner domain.Owner, displayName string) (domain.Registration, error)
}

type languageCache interface {
	Remember(owner domain.Owner, lang domain.Language) domain.Language
}

// Registrar ensures owners are present in storage and primes the language
// cache with their stored preference.
type Registrar struct {
	repo    Repository
	cache   languageCache
	logger  *logrus.Entry
	metrics *metrics.Metrics
}

// NewRegistrar constructs a Registrar. cache and m may be nil.
func NewRegistrar(repo Repository, cache languageCache, logger *logrus.Entry, m *metrics.Metrics) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

// Register creates the owner with the default language and a zero balance,
// or loads the existing language when the owner is already known.
func (r *Registrar) Register(ctx context.Context, owner domain.Owner, displayName string) (domain.Registration, error) {
	if r == nil || r.repo == nil {
		return domain.Registration{}, errors.New("registrar is not initialized")
	}
	if ctx == nil {
		return domain.Registration{}, errors.New("context is required")
	}
	if err := owner.Validate(); err != nil {
		return domain.Registration{}, err
	}

	name := DisplayName(owner, displayName)

	reg, err := r.repo.Register(ctx, owner, name)
	if err != nil {
		r.metrics.ObserveRegistration(string(owner.Kind), "error")
		r.logger.WithFields(logging.Fields{
			"event": "registration_error",
			"owner": owner.String(),
		}).WithError(err).Error("failed to register owner")
		return domain.Registration{}, fmt.Errorf("register %s: %w", owner, err)
	}

	reg.Language = reg.Language.OrDefault()
	if r.cache != nil {
		reg.Language = r.cache.Remember(owner, reg.Language)
	}

	if reg.Created {
		r.metrics.ObserveRegistration(string(owner.Kind), "created")
		r.logger.WithFields(logging.Fields{
			"event": "owner_registered",
			"owner": owner.String(),
			"name":  name,
		}).Info("registered new owner")
		return reg, nil
	}

	r.metrics.ObserveRegistration(string(owner.Kind), "existing")
	r.logger.WithFields(logging.Fields{
		"event":    "owner_seen",
		"owner":    owner.String(),
		"language": string(reg.Language),
	}).Debug("owner already registered")

	return reg, nil
}

// DisplayName returns name trimmed, or "<kind>_<id>" when it is blank.
func DisplayName(owner domain.Owner, name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return owner.String()
}
