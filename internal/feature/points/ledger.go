// Package points reads and updates the point balance of an owner.
package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
)

// ErrInvalidAmount is returned for non-positive increments.
var ErrInvalidAmount = errors.New("amount must be positive")

// Repository is the persistent side of the ledger. Balance returns 0 for an
// owner without a row; IncrementBalance returns ErrNotRegistered instead.
type Repository interface {
	Balance(ctx context.Context, owner domain.Owner) (int64, error)
	IncrementBalance(ctx context.Context, owner domain.Owner, amount int64) (int64, error)
}

// Summary is a balance together with its Val equivalent.
type Summary struct {
	Points int64
	Val    float64
}

// NewSummary derives the Val equivalent of points.
func NewSummary(points int64) Summary {
	return Summary{Points: points, Val: domain.ValFromPoints(points)}
}

// Ledger serves balance reads and atomic increments.
type Ledger struct {
	repo   Repository
	logger *logrus.Entry
}

// NewLedger constructs a Ledger over repo.
func NewLedger(repo Repository, logger *logrus.Entry) *Ledger {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Ledger{repo: repo, logger: logger}
}

// Balance returns the owner's points; a missing row reads as zero and is not
// created.
func (l *Ledger) Balance(ctx context.Context, owner domain.Owner) (Summary, error) {
	if l == nil || l.repo == nil {
		return Summary{}, errors.New("ledger is not initialized")
	}
	if ctx == nil {
		return Summary{}, errors.New("context is required")
	}
	if err := owner.Validate(); err != nil {
		return Summary{}, err
	}

	points, err := l.repo.Balance(ctx, owner)
	if err != nil {
		l.logger.WithFields(logging.Fields{
			"event": "balance_read_error",
			"owner": owner.String(),
		}).WithError(err).Error("failed to read balance")
		return Summary{}, fmt.Errorf("read balance: %w", err)
	}

	return NewSummary(points), nil
}

// Increment adds amount to the owner's balance in a single storage update and
// returns the new balance.
func (l *Ledger) Increment(ctx context.Context, owner domain.Owner, amount int64) (int64, error) {
	if l == nil || l.repo == nil {
		return 0, errors.New("ledger is not initialized")
	}
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := owner.Validate(); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	balance, err := l.repo.IncrementBalance(ctx, owner, amount)
	if err != nil {
		return 0, fmt.Errorf("increment balance: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":   "points_incremented",
		"owner":   owner.String(),
		"amount":  amount,
		"balance": balance,
	}).Info("incremented balance")

	return balance, nil
}
