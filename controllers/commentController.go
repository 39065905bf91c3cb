package controllers

import (
	"context"
	"net/http"
	"time"

	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetComments lists a report's comments, newest first
func GetComments(c *gin.Context) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := commentCollection().Find(ctx, bson.M{"report": reportID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode comments"})
		return
	}

	enriched := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		author := gin.H{"id": comment.SubmittedBy}
		var user models.User
		if err := userCollection().FindOne(ctx, bson.M{"_id": comment.SubmittedBy}).Decode(&user); err == nil {
			author["name"] = user.Name
			author["email"] = user.Email
		}
		enriched = append(enriched, gin.H{
			"id":          comment.ID,
			"text":        comment.Text,
			"report":      comment.Report,
			"submittedBy": author,
			"createdAt":   comment.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, enriched)
}

// CreateComment adds a comment to a report
func CreateComment(c *gin.Context) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required."})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := reportCollection().CountDocuments(ctx, bson.M{"_id": reportID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check report"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	comment := models.Comment{
		ID:          primitive.NewObjectID(),
		Text:        input.Text,
		Report:      reportID,
		SubmittedBy: userID,
		CreatedAt:   time.Now(),
	}

	if _, err := commentCollection().InsertOne(ctx, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}
