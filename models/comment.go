package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment belongs to exactly one report and one author. Comments are looked up
// by report id; they are never embedded in the report document.
type Comment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Text        string             `bson:"text" json:"text"`
	Report      primitive.ObjectID `bson:"report" json:"report"`
	SubmittedBy primitive.ObjectID `bson:"submittedBy" json:"submittedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
