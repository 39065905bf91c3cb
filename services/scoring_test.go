package services_test

import (
	"testing"
	"time"

	"civicpulse-be/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestAdvanceContribution_Streak(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		state      services.ContributionState
		wantStreak int
	}{
		{
			name:       "first ever contribution",
			state:      services.ContributionState{},
			wantStreak: 1,
		},
		{
			name: "consecutive day extends streak",
			state: services.ContributionState{
				ContributionStreak:   4,
				LastContributionDate: timePtr(now.AddDate(0, 0, -1)),
			},
			wantStreak: 5,
		},
		{
			name: "two day gap resets streak",
			state: services.ContributionState{
				ContributionStreak:   4,
				LastContributionDate: timePtr(now.AddDate(0, 0, -2)),
			},
			wantStreak: 1,
		},
		{
			name: "three day gap resets streak",
			state: services.ContributionState{
				ContributionStreak:   9,
				LastContributionDate: timePtr(now.AddDate(0, 0, -3)),
			},
			wantStreak: 1,
		},
		{
			name: "same day repeat leaves streak unchanged",
			state: services.ContributionState{
				ContributionStreak:   4,
				LastContributionDate: timePtr(now.Add(-2 * time.Hour)),
			},
			wantStreak: 4,
		},
		{
			name: "previous day late evening still counts as consecutive",
			state: services.ContributionState{
				ContributionStreak:   1,
				LastContributionDate: timePtr(time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)),
			},
			wantStreak: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := services.AdvanceContribution(tt.state, now)
			assert.Equal(t, tt.wantStreak, next.ContributionStreak)
		})
	}
}

func TestAdvanceContribution_Points(t *testing.T) {
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	state := services.ContributionState{
		Points:               120,
		WeeklyPoints:         30,
		ContributionStreak:   2,
		LastContributionDate: timePtr(now.AddDate(0, 0, -5)),
	}

	next := services.AdvanceContribution(state, now)

	assert.Equal(t, 130, next.Points)
	assert.Equal(t, 40, next.WeeklyPoints)
	assert.Equal(t, 1, next.ContributionStreak)
	require.NotNil(t, next.LastContributionDate)
	assert.Equal(t, now, *next.LastContributionDate)
}

func TestAdvanceContribution_DoesNotMutateInput(t *testing.T) {
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	prior := now.AddDate(0, 0, -1)

	state := services.ContributionState{
		Points:               50,
		WeeklyPoints:         10,
		ContributionStreak:   3,
		LastContributionDate: timePtr(prior),
	}

	_ = services.AdvanceContribution(state, now)

	assert.Equal(t, 50, state.Points)
	assert.Equal(t, 3, state.ContributionStreak)
	assert.Equal(t, prior, *state.LastContributionDate)
}
