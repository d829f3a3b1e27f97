package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID   `bson:"userId" json:"userId"`
	UserName  string               `bson:"userName" json:"userName"` // snapshot at review time
	ProductID primitive.ObjectID   `bson:"productId" json:"productId"`
	OrderID   primitive.ObjectID   `bson:"orderId" json:"orderId"`
	Rating    int                  `bson:"rating" json:"rating"` // 1-5
	Comment   string               `bson:"comment" json:"comment"`
	Upvotes   []primitive.ObjectID `bson:"upvotes" json:"-"`
	Downvotes []primitive.ObjectID `bson:"downvotes" json:"-"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasVote reports whether userID appears in the given vote set.
func HasVote(set []primitive.ObjectID, userID primitive.ObjectID) bool {
	for _, id := range set {
		if id == userID {
			return true
		}
	}
	return false
}

// VoteState is the caller-relative view of a review's votes.
type VoteState struct {
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	UserVote  string `json:"userVote"` // "up", "down" or ""
}
