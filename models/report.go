package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParentCategory is the fixed classification bucket for civic issues.
type ParentCategory string

const (
	Roads          ParentCategory = "Roads"
	Electrical     ParentCategory = "Electrical"
	Sanitation     ParentCategory = "Sanitation"
	Environment    ParentCategory = "Environment"
	Infrastructure ParentCategory = "Infrastructure"
	OtherCategory  ParentCategory = "Other"
)

// ParseParentCategory returns the matching enum value and whether the input
// was one of the fixed set.
func ParseParentCategory(s string) (ParentCategory, bool) {
	switch ParentCategory(s) {
	case Roads, Electrical, Sanitation, Environment, Infrastructure, OtherCategory:
		return ParentCategory(s), true
	}
	return OtherCategory, false
}

// Priority enum
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority returns the matching enum value and whether the input was
// valid.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), true
	}
	return PriorityMedium, false
}

// Report lifecycle statuses. The status set is open beyond these two: staff
// tooling may introduce intermediate workflow states, but "submitted" is the
// entry state and "resolved" is terminal.
const (
	StatusSubmitted = "submitted"
	StatusResolved  = "resolved"
)

// Location is the reporter-supplied coordinate pair.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Report is a citizen-submitted civic issue.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Description string             `bson:"description" json:"description"`

	Category       string         `bson:"category" json:"category"`
	ParentCategory ParentCategory `bson:"parentCategory" json:"parentCategory"`
	Priority       Priority       `bson:"priority" json:"priority"`

	Location    Location `bson:"location" json:"location"`
	Pincode     string   `bson:"pincode,omitempty" json:"pincode,omitempty"`
	FullAddress string   `bson:"fullAddress,omitempty" json:"fullAddress,omitempty"`

	ImageURL    string             `bson:"imageUrl" json:"imageUrl"`
	Status      string             `bson:"status" json:"status"`
	SubmittedBy primitive.ObjectID `bson:"submittedBy" json:"submittedBy"`

	Upvotes      []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	ConfirmIssue []primitive.ObjectID `bson:"confirmIssue" json:"confirmIssue"`

	// Resolution facet: all three are set together, only when the report
	// transitions to resolved.
	ResolutionDescription string     `bson:"resolutionDescription,omitempty" json:"resolutionDescription,omitempty"`
	ResolvedImageURL      string     `bson:"resolvedImageUrl,omitempty" json:"resolvedImageUrl,omitempty"`
	ResolvedAt            *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// HasUpvoted reports whether the given user is in the upvote set.
func (r *Report) HasUpvoted(userID primitive.ObjectID) bool {
	return containsID(r.Upvotes, userID)
}

// HasConfirmed reports whether the given user is in the confirm-issue set.
func (r *Report) HasConfirmed(userID primitive.ObjectID) bool {
	return containsID(r.ConfirmIssue, userID)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
