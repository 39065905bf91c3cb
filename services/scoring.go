package services

import "time"

// ContributionAward is the fixed number of points granted per submitted
// report, applied to both cumulative and weekly points.
const ContributionAward = 10

// ContributionState is the slice of a user's gamification fields the scoring
// engine reads and rewrites.
type ContributionState struct {
	Points               int
	WeeklyPoints         int
	ContributionStreak   int
	LastContributionDate *time.Time
}

// AdvanceContribution computes the next gamification state given that a
// contribution happened at now. Pure: all decisions derive from the inputs.
//
// Streak rule over UTC calendar days: no prior contribution starts the streak
// at 1; a contribution exactly one day after the previous one increments it;
// a gap of more than one day resets it to 1; a same-day repeat leaves the
// streak untouched (points are still awarded).
func AdvanceContribution(state ContributionState, now time.Time) ContributionState {
	next := state

	if state.LastContributionDate == nil {
		next.ContributionStreak = 1
	} else {
		today := truncateToDay(now)
		previous := truncateToDay(*state.LastContributionDate)
		diffDays := int(today.Sub(previous).Hours() / 24)

		switch {
		case diffDays == 1:
			next.ContributionStreak = state.ContributionStreak + 1
		case diffDays > 1:
			next.ContributionStreak = 1
		}
	}

	next.Points += ContributionAward
	next.WeeklyPoints += ContributionAward

	at := now
	next.LastContributionDate = &at
	return next
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
