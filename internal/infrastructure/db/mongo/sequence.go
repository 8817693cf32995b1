package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionCounters = "counters"

// sequence hands out monotonically increasing int64 ids per collection,
// backed by a counters document updated with $inc.
type sequence struct {
	col  *mongo.Collection
	name string
}

func newSequence(db *mongo.Database, name string) *sequence {
	return &sequence{col: db.Collection(collectionCounters), name: name}
}

// next returns the next id, at least 1.
func (s *sequence) next(ctx context.Context) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", s.name, err)
	}
	return doc.Value, nil
}

// advance raises the counter to at least id so explicitly chosen ids are
// never handed out again.
func (s *sequence) advance(ctx context.Context, id int64) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": s.name},
		bson.M{"$max": bson.M{"value": id}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("advance %s id: %w", s.name, err)
	}
	return nil
}
