package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// GetAnalyticsSummary returns report totals, status and category breakdowns,
// average resolution time and a last-7-days submission series.
func GetAnalyticsSummary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	totalReports, err := reportCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reports"})
		return
	}

	statusBreakdown, err := groupCounts(ctx, "$status")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status breakdown"})
		return
	}

	categoryBreakdown, err := groupCounts(ctx, "$parentCategory")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category breakdown"})
		return
	}

	avgHours, err := avgResolutionHours(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get resolution time"})
		return
	}

	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := reportCollection().CountDocuments(ctx, bson.M{
			"createdAt": bson.M{"$gte": date, "$lt": nextDate},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"totalReports":           totalReports,
		"statusBreakdown":        statusBreakdown,
		"categoryBreakdown":      categoryBreakdown,
		"avgResolutionTimeHours": avgHours,
		"reportsLast7Days":       last7Days,
	})
}

func groupCounts(ctx context.Context, field string) ([]bson.M, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
	}

	cursor, err := reportCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func avgResolutionHours(ctx context.Context) (string, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"status": models.StatusResolved, "resolvedAt": bson.M{"$ne": nil}}},
		{"$project": bson.M{"resolutionTime": bson.M{"$subtract": []string{"$resolvedAt", "$createdAt"}}}},
		{"$group": bson.M{"_id": nil, "avgTime": bson.M{"$avg": "$resolutionTime"}}},
	}

	cursor, err := reportCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return "", err
	}
	defer cursor.Close(ctx)

	var results []struct {
		AvgTime float64 `bson:"avgTime"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return "", err
	}

	if len(results) == 0 || results[0].AvgTime == 0 {
		return "0", nil
	}
	return fmt.Sprintf("%.2f", results[0].AvgTime/(1000*60*60)), nil
}
