package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBioLen bounds the profile bio field.
const MaxBioLen = 500

// User is a chat account. The stored password hash never serializes to JSON.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	FullName   string             `bson:"fullName" json:"fullName"`
	Bio        string             `bson:"bio" json:"bio"`
	ProfilePic string             `bson:"profilePic" json:"profilePic"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
