package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "tutorly/internal/bookings/errors"
	"tutorly/internal/bookings/wizard"
	mongoMigration "tutorly/internal/migrations/mongo"
	"tutorly/pkg/config"
)

const (
	CollectionName = mongoMigration.WizardsCollection
)

type mongoWizardRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// NewMongoWizardRepository stores wizards in MongoDB. Expired sessions are
// removed by a TTL index on expires_at, created here if missing.
func NewMongoWizardRepository(ctx context.Context, cfg *config.Config) (WizardRepository, error) {
	collection := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName)
	r := &mongoWizardRepository{cfg: cfg, collection: collection}

	ctx, cancel := r.withTimeout(ctx, cfg.WriteTimeout)
	defer cancel()

	if err := mongoMigration.EnsureIndexes(ctx, collection, mongoMigration.WizardsIndexes); err != nil {
		return nil, fmt.Errorf("failed to ensure wizard indexes: %w", err)
	}
	return r, nil
}

func (r *mongoWizardRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoWizardRepository) Create(ctx context.Context, state *wizard.State) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	state.Version = 1
	state.CreatedAt = now
	state.UpdatedAt = now
	state.ExpiresAt = now.Add(r.cfg.WizardTTL)

	if _, err := r.collection.InsertOne(ctx, state); err != nil {
		return fmt.Errorf("failed to create wizard: %w", err)
	}
	return nil
}

func (r *mongoWizardRepository) FindByID(ctx context.Context, id string) (*wizard.State, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// The TTL monitor runs periodically, so expiry is also enforced on read.
	filter := bson.M{"_id": id, "expires_at": bson.M{"$gt": time.Now().UTC()}}

	var state wizard.State
	if err := r.collection.FindOne(ctx, filter).Decode(&state); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find wizard: %w", err)
	}
	return &state, nil
}

func (r *mongoWizardRepository) Replace(ctx context.Context, state *wizard.State) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	expected := state.Version
	next := *state
	now := time.Now().UTC().Truncate(time.Millisecond)
	next.Version = expected + 1
	next.UpdatedAt = now
	next.ExpiresAt = now.Add(r.cfg.WizardTTL)

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": state.ID, "version": expected}, next)
	if err != nil {
		return fmt.Errorf("failed to replace wizard: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": state.ID})
		if err != nil {
			return fmt.Errorf("failed to check wizard existence: %w", err)
		}
		if count == 0 {
			return bookingserrors.ErrNotFound
		}
		return bookingserrors.ErrVersionConflict
	}

	*state = next
	return nil
}

func (r *mongoWizardRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete wizard: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoWizardRepository) Stop() {}
