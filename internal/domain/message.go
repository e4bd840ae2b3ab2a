package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTextLen bounds the message body.
const MaxTextLen = 5000

// Message is one direct message between two users. Immutable after creation
// except for Seen, which transitions false to true exactly once.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   primitive.ObjectID `bson:"senderId" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiverId" json:"receiverId"`
	Text       string             `bson:"text,omitempty" json:"text"`
	Image      string             `bson:"image,omitempty" json:"image"`
	Seen       bool               `bson:"seen" json:"seen"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
