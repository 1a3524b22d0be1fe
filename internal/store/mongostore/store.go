package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
)

const compensateTimeout = 5 * time.Second

type collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

type collections struct {
	users  collection
	groups collection
	points collection
	ads    collection
	views  collection
}

type languageDoc struct {
	Language string `bson:"language"`
}

type pointDoc struct {
	OwnerType string `bson:"owner_type"`
	OwnerID   int64  `bson:"owner_id"`
	Point     int64  `bson:"point"`
}

type adDoc struct {
	ID        int64     `bson:"id"`
	Content   string    `bson:"content"`
	URL       string    `bson:"url,omitempty"`
	IsActive  bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
}

type viewDoc struct {
	OwnerType    string    `bson:"owner_type"`
	OwnerID      int64     `bson:"owner_id"`
	AdID         int64     `bson:"ad_id"`
	PointsEarned int64     `bson:"points_earned"`
	ViewedAt     time.Time `bson:"viewed_at"`
	ViewDay      string    `bson:"view_day"`
}

// Store implements every repository the bot needs on MongoDB. Multi-document
// sequences are ordered so that a unique index acts as the gate and any later
// failure is compensated by deleting the document that was inserted first.
type Store struct {
	manager *Manager
	colls   collections
	logger  *logrus.Entry
}

// New builds a Store over the collections of manager.
func New(manager *Manager, logger *logrus.Entry) *Store {
	return newStore(manager, collections{
		users:  manager.Collection(CollectionUsers),
		groups: manager.Collection(CollectionGroups),
		points: manager.Collection(CollectionPoints),
		ads:    manager.Collection(CollectionAds),
		views:  manager.Collection(CollectionAdViewLogs),
	}, logger)
}

func newStore(manager *Manager, colls collections, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Store{manager: manager, colls: colls, logger: logger}
}

// EnsureSchema creates the required indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.manager.EnsureIndexes(ctx)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.manager.Ping(ctx)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.manager.Close(ctx)
}

func (s *Store) preferences(owner domain.Owner) (coll collection, idField, nameField string) {
	if owner.IsGroup() {
		return s.colls.groups, "group_id", "group_name"
	}
	return s.colls.users, "user_id", "username"
}

func ownerFilter(owner domain.Owner) bson.M {
	return bson.M{"owner_type": string(owner.Kind), "owner_id": owner.ID}
}

// LookupLanguage returns the stored language of owner and whether a document
// exists.
func (s *Store) LookupLanguage(ctx context.Context, owner domain.Owner) (domain.Language, bool, error) {
	coll, idField, _ := s.preferences(owner)

	result := coll.FindOne(ctx, bson.M{idField: owner.ID})
	if result == nil {
		return "", false, errors.New("find language returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find language: %w", err)
	}

	var doc languageDoc
	if err := result.Decode(&doc); err != nil {
		return "", false, fmt.Errorf("decode language: %w", err)
	}

	return domain.Language(doc.Language), true, nil
}

// UpdateLanguage overwrites the language of an existing owner.
func (s *Store) UpdateLanguage(ctx context.Context, owner domain.Owner, lang domain.Language) error {
	coll, idField, _ := s.preferences(owner)

	result, err := coll.UpdateOne(ctx,
		bson.M{idField: owner.ID},
		bson.M{"$set": bson.M{"language": string(lang)}},
	)
	if err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	if result == nil || result.MatchedCount == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

// Register inserts the preference document and upserts the ledger document.
// The preference unique index resolves concurrent registrations; a failed
// ledger write removes the preference again. An existing owner gets its
// ledger created if an earlier rollback left it missing.
func (s *Store) Register(ctx context.Context, owner domain.Owner, displayName string) (domain.Registration, error) {
	lang, found, err := s.LookupLanguage(ctx, owner)
	if err != nil {
		return domain.Registration{}, err
	}
	if found {
		return s.existing(ctx, owner, lang)
	}

	coll, idField, nameField := s.preferences(owner)
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err = coll.InsertOne(ctx, bson.M{
		idField:      owner.ID,
		nameField:    displayName,
		"language":   string(domain.DefaultLanguage),
		"created_at": now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			lang, _, err := s.LookupLanguage(ctx, owner)
			if err != nil {
				return domain.Registration{}, err
			}
			return s.existing(ctx, owner, lang)
		}
		return domain.Registration{}, fmt.Errorf("insert preference: %w", err)
	}

	if _, err := s.ensureLedger(ctx, owner); err != nil {
		s.compensate(ctx, coll, bson.M{idField: owner.ID}, owner, "preference")
		return domain.Registration{}, err
	}

	return domain.Registration{Created: true, Language: domain.DefaultLanguage}, nil
}

// existing reports an already registered owner. The ledger upsert repairs a
// preference document left behind by a registration whose compensation
// failed.
func (s *Store) existing(ctx context.Context, owner domain.Owner, lang domain.Language) (domain.Registration, error) {
	repaired, err := s.ensureLedger(ctx, owner)
	if err != nil {
		return domain.Registration{}, err
	}
	if repaired {
		s.logger.WithFields(logging.Fields{
			"event": "ledger_repaired",
			"owner": owner.String(),
		}).Warn("created missing point ledger for registered owner")
	}
	return domain.Registration{Language: lang}, nil
}

// ensureLedger upserts a zero balance and reports whether it was inserted.
func (s *Store) ensureLedger(ctx context.Context, owner domain.Owner) (bool, error) {
	result, err := s.colls.points.UpdateOne(ctx,
		ownerFilter(owner),
		bson.M{"$setOnInsert": bson.M{"point": int64(0)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("create point ledger: %w", err)
	}
	return result != nil && result.UpsertedCount > 0, nil
}

// Balance returns the points of owner, zero when no ledger document exists.
func (s *Store) Balance(ctx context.Context, owner domain.Owner) (int64, error) {
	result := s.colls.points.FindOne(ctx, ownerFilter(owner))
	if result == nil {
		return 0, errors.New("find balance returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("find balance: %w", err)
	}

	var doc pointDoc
	if err := result.Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return doc.Point, nil
}

// IncrementBalance applies $inc and returns the updated balance.
func (s *Store) IncrementBalance(ctx context.Context, owner domain.Owner, amount int64) (int64, error) {
	result := s.colls.points.FindOneAndUpdate(ctx,
		ownerFilter(owner),
		bson.M{"$inc": bson.M{"point": amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result == nil {
		return 0, errors.New("increment balance returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrNotRegistered
		}
		return 0, fmt.Errorf("increment balance: %w", err)
	}

	var doc pointDoc
	if err := result.Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return doc.Point, nil
}

// ViewAd selects an ad and awards the daily points at most once. The insert
// into ad_view_logs is the gate: its unique (owner, day) index rejects a
// second award, and a failed increment deletes the log again.
func (s *Store) ViewAd(ctx context.Context, req domain.AdViewRequest) (domain.AdViewOutcome, error) {
	ad, err := s.selectAd(ctx, req.Policy)
	if err != nil || ad == nil {
		return domain.AdViewOutcome{}, err
	}

	dayFilter := ownerFilter(req.Owner)
	dayFilter["view_day"] = req.Day

	existing := s.colls.views.FindOne(ctx, dayFilter)
	if existing == nil {
		return domain.AdViewOutcome{}, errors.New("find ad view returned no result")
	}
	switch err := existing.Err(); {
	case err == nil:
		return s.alreadyViewed(ctx, req.Owner, ad)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return domain.AdViewOutcome{}, fmt.Errorf("find ad view: %w", err)
	}

	_, err = s.colls.views.InsertOne(ctx, viewDoc{
		OwnerType:    string(req.Owner.Kind),
		OwnerID:      req.Owner.ID,
		AdID:         ad.ID,
		PointsEarned: req.Award,
		ViewedAt:     req.At.UTC().Truncate(time.Millisecond),
		ViewDay:      req.Day,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return s.alreadyViewed(ctx, req.Owner, ad)
		}
		return domain.AdViewOutcome{}, fmt.Errorf("insert ad view: %w", err)
	}

	balance, err := s.IncrementBalance(ctx, req.Owner, req.Award)
	if err != nil {
		s.compensate(ctx, s.colls.views, dayFilter, req.Owner, "ad_view_log")
		return domain.AdViewOutcome{}, err
	}

	return domain.AdViewOutcome{Ad: ad, Awarded: true, Balance: balance}, nil
}

func (s *Store) alreadyViewed(ctx context.Context, owner domain.Owner, ad *domain.Advertisement) (domain.AdViewOutcome, error) {
	balance, err := s.Balance(ctx, owner)
	if err != nil {
		return domain.AdViewOutcome{}, err
	}
	return domain.AdViewOutcome{Ad: ad, Balance: balance}, nil
}

func (s *Store) selectAd(ctx context.Context, policy domain.AdPolicy) (*domain.Advertisement, error) {
	var doc adDoc

	if policy == domain.AdPolicyRandom {
		cursor, err := s.colls.ads.Aggregate(ctx, mongo.Pipeline{
			{{Key: "$match", Value: bson.D{{Key: "is_active", Value: true}}}},
			{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
		})
		if err != nil {
			return nil, fmt.Errorf("sample ad: %w", err)
		}
		defer cursor.Close(ctx)

		if !cursor.Next(ctx) {
			if err := cursor.Err(); err != nil {
				return nil, fmt.Errorf("sample ad: %w", err)
			}
			return nil, nil
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode ad: %w", err)
		}
		return doc.advertisement(), nil
	}

	result := s.colls.ads.FindOne(ctx,
		bson.M{"is_active": true},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}}),
	)
	if result == nil {
		return nil, errors.New("find ad returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find ad: %w", err)
	}
	if err := result.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ad: %w", err)
	}
	return doc.advertisement(), nil
}

func (d adDoc) advertisement() *domain.Advertisement {
	return &domain.Advertisement{
		ID:        d.ID,
		Content:   d.Content,
		URL:       d.URL,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
	}
}

// compensate deletes a partial write. It outlives the request context so a
// shutdown between the two writes still rolls back.
func (s *Store) compensate(ctx context.Context, coll collection, filter bson.M, owner domain.Owner, what string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	if _, err := coll.DeleteOne(ctx, filter); err != nil {
		s.logger.WithFields(logging.Fields{
			"event":  "compensation_failed",
			"owner":  owner.String(),
			"target": what,
		}).WithError(err).Error("failed to roll back partial write")
	}
}
