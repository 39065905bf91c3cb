package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"civicpulse-be/config"
	"civicpulse-be/models"
	"civicpulse-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func reportCollection() *mongo.Collection  { return config.GetCollection("reports") }
func commentCollection() *mongo.Collection { return config.GetCollection("comments") }

// respondPipelineError maps the intake error taxonomy to HTTP outcomes.
// Internal detail is logged server-side and never leaks to the caller.
func respondPipelineError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var rejectedErr *services.RejectedContentError
	var storageErr *services.StorageError
	var persistErr *services.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Message})
	case errors.As(err, &rejectedErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         "Report rejected: the submission does not appear to describe a civic issue.",
			"justification": rejectedErr.Justification,
		})
	case errors.As(err, &storageErr):
		zap.L().Error("image storage failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
	case errors.As(err, &persistErr):
		zap.L().Error("database write failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	default:
		zap.L().Error("unexpected pipeline error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func actingUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}
	objID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objID, true
}

func readImageFile(c *gin.Context, field string) ([]byte, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", false
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", false
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, true
}

// SubmitReport handles a new report submission: multipart body with image,
// description and a JSON-encoded location.
func SubmitReport(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	image, mimeType, ok := readImageFile(c, "image")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required."})
		return
	}

	var loc struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal([]byte(c.PostForm("location")), &loc); err != nil || loc.Lat == nil || loc.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid location with lat and lng is required."})
		return
	}

	// The pipeline suspends on the classifier, geocoder and storage; give it
	// more headroom than plain CRUD handlers.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	report, err := pipeline.SubmitReport(ctx, services.SubmitInput{
		Description: c.PostForm("description"),
		Location:    models.Location{Lat: *loc.Lat, Lng: *loc.Lng},
		Image:       image,
		MimeType:    mimeType,
		SubmittedBy: userID,
	})
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Report submitted and points awarded!",
		"report":  report,
	})
}

// GetAllReports retrieves reports with status filtering and pagination,
// newest first.
func GetAllReports(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{}
	if status != "" && status != "all" {
		filter["status"] = status
	}

	totalCount, err := reportCollection().CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reports"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := reportCollection().Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}
	defer cursor.Close(ctx)

	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode reports"})
		return
	}

	enriched := make([]gin.H, 0, len(reports))
	for _, report := range reports {
		enriched = append(enriched, enrichReport(ctx, report))
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, gin.H{
		"reports":      enriched,
		"totalReports": totalCount,
		"totalPages":   totalPages,
		"currentPage":  page,
	})
}

// GetReport retrieves a single report by its ID
func GetReport(c *gin.Context) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var report models.Report
	err = reportCollection().FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		}
		return
	}

	c.JSON(http.StatusOK, enrichReport(ctx, report))
}

// enrichReport attaches submitter info and engagement counts the way clients
// expect them.
func enrichReport(ctx context.Context, report models.Report) gin.H {
	submittedBy := gin.H{"id": report.SubmittedBy}
	var submitter models.User
	if err := userCollection().FindOne(ctx, bson.M{"_id": report.SubmittedBy}).Decode(&submitter); err == nil {
		submittedBy["name"] = submitter.Name
		submittedBy["email"] = submitter.Email
	}

	commentCount, err := commentCollection().CountDocuments(ctx, bson.M{"report": report.ID})
	if err != nil {
		commentCount = 0
	}

	return gin.H{
		"id":                    report.ID,
		"description":           report.Description,
		"category":              report.Category,
		"parentCategory":        report.ParentCategory,
		"priority":              report.Priority,
		"location":              report.Location,
		"pincode":               report.Pincode,
		"fullAddress":           report.FullAddress,
		"imageUrl":              report.ImageURL,
		"status":                report.Status,
		"submittedBy":           submittedBy,
		"upvotes":               report.Upvotes,
		"upvoteCount":           len(report.Upvotes),
		"confirmIssue":          report.ConfirmIssue,
		"confirmCount":          len(report.ConfirmIssue),
		"commentCount":          commentCount,
		"resolutionDescription": report.ResolutionDescription,
		"resolvedImageUrl":      report.ResolvedImageURL,
		"resolvedAt":            report.ResolvedAt,
		"createdAt":             report.CreatedAt,
	}
}

// UpdateReportStatus updates a report's workflow status and notifies the
// submitting user.
func UpdateReportStatus(c *gin.Context) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := pipeline.UpdateStatus(ctx, reportID, input.Status)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ResolveReport marks a report resolved: multipart body with the after-image
// and a resolution description.
func ResolveReport(c *gin.Context) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	image, mimeType, ok := readImageFile(c, "image")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resolution image is required."})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := pipeline.ResolveReport(ctx, reportID, c.PostForm("resolutionDescription"), image, mimeType)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ToggleUpvote flips the acting user's upvote on a report
func ToggleUpvote(c *gin.Context) {
	toggleEngagement(c, pipeline.ToggleUpvote)
}

// ToggleConfirm flips the acting user's confirm-issue mark on a report
func ToggleConfirm(c *gin.Context) {
	toggleEngagement(c, pipeline.ToggleConfirm)
}

func toggleEngagement(c *gin.Context, toggle func(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.Report, error)) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := toggle(ctx, reportID, userID)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrichReport(ctx, *report))
}

// ServeUpload streams a stored image back to the client
func ServeUpload(c *gin.Context) {
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	contentType, err := objectStore.ContentType(ctx, fileID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		} else {
			zap.L().Error("failed to look up upload", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve file"})
		}
		return
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if err := objectStore.Download(ctx, fileID, c.Writer); err != nil {
		zap.L().Error("failed to stream upload", zap.Error(err))
	}
}
