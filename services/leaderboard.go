package services

import (
	"sort"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeaderboardSize is how many standings the leaderboard endpoint displays.
// The weekly climber is still computed over the full user set.
const LeaderboardSize = 10

// Standing is one row of the computed leaderboard.
type Standing struct {
	User            models.User
	Rank            int
	IsWeeklyClimber bool
}

// ComputeStandings orders the full user set by cumulative points descending
// and assigns competition ranks: users with equal points share a rank equal to
// the count of strictly better users plus one. Display order among ties is
// earlier account creation first, then id, so output is deterministic.
//
// The weekly climber is the user with the greatest weeklyPoints, only when
// that maximum is strictly positive; ties go to the user highest in the
// standings.
func ComputeStandings(users []models.User) []Standing {
	sorted := make([]models.User, len(users))
	copy(sorted, users)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.Hex() < sorted[j].ID.Hex()
	})

	standings := make([]Standing, len(sorted))
	for i, u := range sorted {
		rank := i + 1
		if i > 0 && u.Points == sorted[i-1].Points {
			rank = standings[i-1].Rank
		}
		standings[i] = Standing{User: u, Rank: rank}
	}

	if idx, ok := weeklyClimberIndex(standings); ok {
		standings[idx].IsWeeklyClimber = true
	}
	return standings
}

func weeklyClimberIndex(standings []Standing) (int, bool) {
	best := -1
	maxWeekly := 0
	for i, s := range standings {
		if s.User.WeeklyPoints > maxWeekly {
			maxWeekly = s.User.WeeklyPoints
			best = i
		}
	}
	return best, best >= 0
}

// RankOf computes a single user's rank without ordering the whole set: the
// count of users with strictly greater points, plus one. Agrees with the rank
// ComputeStandings assigns over the same snapshot.
func RankOf(users []models.User, userID primitive.ObjectID) (int, bool) {
	var points int
	found := false
	for _, u := range users {
		if u.ID == userID {
			points = u.Points
			found = true
			break
		}
	}
	if !found {
		return 0, false
	}

	rank := 1
	for _, u := range users {
		if u.Points > points {
			rank++
		}
	}
	return rank, true
}
