package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

const collectionActivity = "activity_log"

const maxRecent = 200

// ActivityRepository implements ports.ActivityRecorder and ports.ActivityReader
// on the activity_log collection.
type ActivityRepository struct {
	col *mongo.Collection
	now func() time.Time
}

var (
	_ ports.ActivityRecorder = (*ActivityRepository)(nil)
	_ ports.ActivityReader   = (*ActivityRepository)(nil)
)

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivity), now: time.Now}
}

type activityDoc struct {
	EventType  string            `bson:"event_type"`
	Metadata   map[string]string `bson:"metadata"`
	OccurredAt time.Time         `bson:"occurred_at"`
}

// Record inserts a single activity document.
func (r *ActivityRepository) Record(ctx context.Context, eventType string, metadata map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toActivityDoc(eventType, metadata, r.now())); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns up to limit entries of eventType, newest first. An empty
// eventType matches every entry.
func (r *ActivityRepository) Recent(ctx context.Context, eventType string, limit int) ([]domain.ActivityEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if eventType != "" {
		filter["event_type"] = eventType
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}
	defer cur.Close(ctx)

	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	out := make([]domain.ActivityEntry, len(docs))
	for i, d := range docs {
		out[i] = domain.ActivityEntry{
			EventType:  d.EventType,
			Metadata:   d.Metadata,
			OccurredAt: d.OccurredAt.UTC(),
		}
	}
	return out, nil
}

// EnsureIndexes creates the index used by Recent.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "occurred_at", Value: -1}},
	})
	return err
}

func toActivityDoc(eventType string, metadata map[string]string, at time.Time) activityDoc {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	return activityDoc{EventType: eventType, Metadata: meta, OccurredAt: at.UTC()}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxRecent {
		return maxRecent
	}
	return limit
}
