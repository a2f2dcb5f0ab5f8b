package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

var ErrSettlementNotFound = errors.New("settlement not found")

const (
	collectionName = "settlements"
	DefaultLimit   = 20
	maxLimit       = 200
)

// Journal is the audit trail of settled purchases.
type Journal interface {
	Record(ctx context.Context, s *domain.Settlement) error
	List(ctx context.Context, terminalID string, limit int) ([]*domain.Settlement, error)
	Get(ctx context.Context, id string) (*domain.Settlement, error)
	Unpublished(ctx context.Context, limit int) ([]*domain.Settlement, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

type MongoJournal struct {
	collection *mongo.Collection
}

func NewMongoJournal(db *mongo.Database) *MongoJournal {
	return &MongoJournal{collection: db.Collection(collectionName)}
}

// Record inserts s. Recording the same settlement id twice is a no-op.
func (m *MongoJournal) Record(ctx context.Context, s *domain.Settlement) error {
	_, err := m.collection.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}
	return nil
}

// List returns the newest settlements of a terminal first.
func (m *MongoJournal) List(ctx context.Context, terminalID string, limit int) ([]*domain.Settlement, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "settled_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{"terminal_id": terminalID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer cursor.Close(ctx)

	settlements := make([]*domain.Settlement, 0)
	if err := cursor.All(ctx, &settlements); err != nil {
		return nil, fmt.Errorf("failed to decode settlements: %w", err)
	}
	return settlements, nil
}

func (m *MongoJournal) Get(ctx context.Context, id string) (*domain.Settlement, error) {
	var s domain.Settlement
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return &s, nil
}

// Unpublished returns settlements whose event was never delivered, oldest first.
func (m *MongoJournal) Unpublished(ctx context.Context, limit int) ([]*domain.Settlement, error) {
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "settled_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{"published_at": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unpublished settlements: %w", err)
	}
	defer cursor.Close(ctx)

	settlements := make([]*domain.Settlement, 0)
	if err := cursor.All(ctx, &settlements); err != nil {
		return nil, fmt.Errorf("failed to decode settlements: %w", err)
	}
	return settlements, nil
}

func (m *MongoJournal) MarkPublished(ctx context.Context, id string, at time.Time) error {
	res, err := m.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"published_at": at}})
	if err != nil {
		return fmt.Errorf("failed to mark settlement published: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSettlementNotFound
	}
	return nil
}

func (m *MongoJournal) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "terminal_id", Value: 1}, {Key: "settled_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "published_at", Value: 1}, {Key: "settled_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "cufe", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"cufe": bson.M{"$exists": true}}),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
