// Package sqlstore persists preferences, point balances and ad views in
// PostgreSQL or SQLite through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"valley_bot/internal/config"
	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
)

const slowQueryThreshold = 500 * time.Millisecond

// Store implements every repository the bot needs on top of a gorm handle.
type Store struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// Open connects to the SQL database selected by cfg.StoreDriver.
func Open(cfg config.Config, logger *logrus.Entry) (*Store, error) {
	if logger == nil {
		logger = logging.Logger()
	}

	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.Postgres.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.StoreDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger.WithField("component", "gorm"), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.StoreDriver, err)
	}

	if cfg.StoreDriver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db, logger), nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates or migrates all tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if s == nil || s.db == nil {
		return errors.New("sql store is not initialized")
	}

	if err := s.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LookupLanguage returns the stored language of owner and whether a row exists.
func (s *Store) LookupLanguage(ctx context.Context, owner domain.Owner) (domain.Language, bool, error) {
	return lookupLanguage(s.db.WithContext(ctx), owner)
}

// UpdateLanguage overwrites the language of an existing owner.
func (s *Store) UpdateLanguage(ctx context.Context, owner domain.Owner, lang domain.Language) error {
	table, column := preferenceTable(owner)
	res := s.db.WithContext(ctx).Table(table).
		Where(column+" = ?", owner.ID).
		Update("language", string(lang))
	if res.Error != nil {
		return fmt.Errorf("update %s language: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

// Register creates the preference row and the ledger row of owner in one
// transaction. An existing owner is left untouched and its language returned.
func (s *Store) Register(ctx context.Context, owner domain.Owner, displayName string) (domain.Registration, error) {
	var reg domain.Registration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lang, found, err := lookupLanguage(tx, owner)
		if err != nil {
			return err
		}
		if found {
			reg = domain.Registration{Language: lang}
			return nil
		}

		now := time.Now().UTC()
		var pref any = &userRow{UserID: owner.ID, Username: displayName, Language: string(domain.DefaultLanguage), CreatedAt: now}
		if owner.IsGroup() {
			pref = &groupRow{GroupID: owner.ID, GroupName: displayName, Language: string(domain.DefaultLanguage), CreatedAt: now}
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(pref)
		if res.Error != nil {
			return fmt.Errorf("create preference: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost a race with a concurrent registration.
			lang, _, err := lookupLanguage(tx, owner)
			if err != nil {
				return err
			}
			reg = domain.Registration{Language: lang}
			return nil
		}

		ledger := &pointRow{OwnerType: string(owner.Kind), OwnerID: owner.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ledger).Error; err != nil {
			return fmt.Errorf("create point ledger: %w", err)
		}

		reg = domain.Registration{Created: true, Language: domain.DefaultLanguage}
		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}

	return reg, nil
}

// Balance returns the points of owner, zero when no ledger row exists.
func (s *Store) Balance(ctx context.Context, owner domain.Owner) (int64, error) {
	return balance(s.db.WithContext(ctx), owner)
}

// IncrementBalance adds amount with a single UPDATE and returns the new
// balance.
func (s *Store) IncrementBalance(ctx context.Context, owner domain.Owner, amount int64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = increment(tx, owner, amount)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ViewAd runs ad selection, the daily view check, the increment and the view
// log insert in one transaction.
func (s *Store) ViewAd(ctx context.Context, req domain.AdViewRequest) (domain.AdViewOutcome, error) {
	var outcome domain.AdViewOutcome

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ad, err := selectAd(tx, req.Policy)
		if err != nil || ad == nil {
			return err
		}

		var viewed int64
		if err := ownerScope(tx.Model(&adViewLogRow{}), req.Owner).
			Where("view_day = ?", req.Day).
			Count(&viewed).Error; err != nil {
			return fmt.Errorf("check ad view: %w", err)
		}
		if viewed > 0 {
			points, err := balance(tx, req.Owner)
			if err != nil {
				return err
			}
			outcome = domain.AdViewOutcome{Ad: ad, Balance: points}
			return nil
		}

		points, err := increment(tx, req.Owner, req.Award)
		if err != nil {
			return err
		}

		row := &adViewLogRow{
			OwnerType:    string(req.Owner.Kind),
			OwnerID:      req.Owner.ID,
			AdID:         ad.ID,
			PointsEarned: req.Award,
			ViewedAt:     req.At,
			ViewDay:      req.Day,
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("insert ad view log: %w", err)
		}

		outcome = domain.AdViewOutcome{Ad: ad, Awarded: true, Balance: points}
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent view of the same owner and day committed first.
		s.logger.WithFields(logging.Fields{
			"event": "ad_view_conflict",
			"owner": req.Owner.String(),
			"day":   req.Day,
		}).Warn("concurrent ad view already awarded")
		points, berr := s.Balance(ctx, req.Owner)
		if berr != nil {
			return domain.AdViewOutcome{}, berr
		}
		ad, aerr := selectAd(s.db.WithContext(ctx), req.Policy)
		if aerr != nil {
			return domain.AdViewOutcome{}, aerr
		}
		return domain.AdViewOutcome{Ad: ad, Balance: points}, nil
	}
	if err != nil {
		return domain.AdViewOutcome{}, err
	}

	return outcome, nil
}

func preferenceTable(owner domain.Owner) (table, idColumn string) {
	if owner.IsGroup() {
		return "groups", "group_id"
	}
	return "users", "user_id"
}

func lookupLanguage(db *gorm.DB, owner domain.Owner) (domain.Language, bool, error) {
	table, column := preferenceTable(owner)

	var langs []string
	if err := db.Table(table).Where(column+" = ?", owner.ID).Limit(1).Pluck("language", &langs).Error; err != nil {
		return "", false, fmt.Errorf("lookup %s language: %w", table, err)
	}
	if len(langs) == 0 {
		return "", false, nil
	}
	return domain.Language(langs[0]), true, nil
}

func ownerScope(db *gorm.DB, owner domain.Owner) *gorm.DB {
	return db.Where("owner_type = ? AND owner_id = ?", string(owner.Kind), owner.ID)
}

func balance(db *gorm.DB, owner domain.Owner) (int64, error) {
	var points []int64
	if err := ownerScope(db.Model(&pointRow{}), owner).Limit(1).Pluck("point", &points).Error; err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if len(points) == 0 {
		return 0, nil
	}
	return points[0], nil
}

func increment(tx *gorm.DB, owner domain.Owner, amount int64) (int64, error) {
	res := ownerScope(tx.Model(&pointRow{}), owner).
		UpdateColumn("point", gorm.Expr("point + ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("increment balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrNotRegistered
	}
	return balance(tx, owner)
}

func selectAd(db *gorm.DB, policy domain.AdPolicy) (*domain.Advertisement, error) {
	query := db.Where("is_active = ?", true)
	if policy == domain.AdPolicyRandom {
		query = query.Order("RANDOM()")
	} else {
		query = query.Order("created_at DESC").Order("id DESC")
	}

	var rows []adRow
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select ad: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &domain.Advertisement{
		ID:        row.ID,
		Content:   row.Content,
		URL:       row.URL,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}, nil
}
