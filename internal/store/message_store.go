package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickchat/internal/domain"
)

// MessageStore persists direct messages in the messages collection.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(c *Client) *MessageStore {
	return &MessageStore{col: c.Database.Collection("messages")}
}

func (s *MessageStore) Create(ctx context.Context, m *domain.Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, m)
	return err
}

// FindPair returns every message between a and b in either direction, oldest
// first. ObjectID order breaks createdAt ties, which preserves insertion order.
func (s *MessageStore) FindPair(ctx context.Context, a, b primitive.ObjectID) ([]*domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": a, "receiverId": b},
		bson.M{"senderId": b, "receiverId": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := make([]*domain.Message, 0)
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkSeen flips seen on every unseen message from senderID to receiverID and
// returns how many changed. Running it again matches nothing.
func (s *MessageStore) MarkSeen(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"senderId": senderID, "receiverId": receiverID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountUnseenBySender aggregates unseen message counts addressed to
// receiverID, keyed by sender id hex. Senders with no unseen messages are
// absent from the map.
func (s *MessageStore) CountUnseenBySender(ctx context.Context, receiverID primitive.ObjectID) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiverId": receiverID, "seen": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$senderId", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			SenderID primitive.ObjectID `bson:"_id"`
			Count    int64              `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.SenderID.Hex()] = row.Count
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
