package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User is a registered citizen. Gamification fields are mutated only by the
// intake pipeline (on submission) and the weekly reset job.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"`

	Points               int        `bson:"points" json:"points"`
	WeeklyPoints         int        `bson:"weeklyPoints" json:"weeklyPoints"`
	ContributionStreak   int        `bson:"contributionStreak" json:"contributionStreak"`
	LastContributionDate *time.Time `bson:"lastContributionDate,omitempty" json:"lastContributionDate,omitempty"`
	PreviousRank         *int       `bson:"previousRank,omitempty" json:"previousRank,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
