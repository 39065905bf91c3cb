package controllers

import (
	"context"
	"net/http"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetLeaderboard returns the top standings by cumulative points. The weekly
// climber is computed over the whole user set, not just the displayed rows.
func GetLeaderboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := userCollection().Find(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}

	standings := services.ComputeStandings(users)
	if len(standings) > services.LeaderboardSize {
		standings = standings[:services.LeaderboardSize]
	}

	rows := make([]gin.H, 0, len(standings))
	for _, s := range standings {
		rows = append(rows, gin.H{
			"rank":            s.Rank,
			"id":              s.User.ID,
			"name":            s.User.Name,
			"email":           s.User.Email,
			"points":          s.User.Points,
			"weeklyPoints":    s.User.WeeklyPoints,
			"previousRank":    s.User.PreviousRank,
			"isWeeklyClimber": s.IsWeeklyClimber,
		})
	}

	c.JSON(http.StatusOK, rows)
}

// GetMyRank returns the authenticated user's rank: the count of users with
// strictly more points, plus one.
func GetMyRank(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection().FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	greater, err := userCollection().CountDocuments(ctx, bson.M{"points": bson.M{"$gt": user.Points}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute rank"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rank":               greater + 1,
		"points":             user.Points,
		"weeklyPoints":       user.WeeklyPoints,
		"contributionStreak": user.ContributionStreak,
		"previousRank":       user.PreviousRank,
	})
}
