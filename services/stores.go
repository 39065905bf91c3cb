package services

import (
	"context"
	"errors"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReportStore implements ReportStore on the reports collection.
type MongoReportStore struct {
	col *mongo.Collection
}

func NewMongoReportStore(col *mongo.Collection) *MongoReportStore {
	return &MongoReportStore{col: col}
}

func (s *MongoReportStore) Insert(ctx context.Context, report *models.Report) error {
	_, err := s.col.InsertOne(ctx, report)
	return err
}

func (s *MongoReportStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var report models.Report
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *MongoReportStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error) {
	return s.findAndUpdate(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

func (s *MongoReportStore) SetResolution(ctx context.Context, id primitive.ObjectID, description, imageURL string, at time.Time) (*models.Report, error) {
	// One update sets the whole resolution facet atomically.
	return s.findAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"status":                models.StatusResolved,
		"resolutionDescription": description,
		"resolvedImageUrl":      imageURL,
		"resolvedAt":            at,
	}})
}

func (s *MongoReportStore) AddEngagement(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) (*models.Report, error) {
	return s.findAndUpdate(ctx, id, bson.M{"$addToSet": bson.M{field: userID}})
}

func (s *MongoReportStore) RemoveEngagement(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) (*models.Report, error) {
	return s.findAndUpdate(ctx, id, bson.M{"$pull": bson.M{field: userID}})
}

func (s *MongoReportStore) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var report models.Report
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// MongoUserStore implements UserStore and the weekly-reset store on the users
// collection.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(col *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{col: col}
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) ApplyContribution(ctx context.Context, id primitive.ObjectID, state ContributionState) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"points":               state.Points,
		"weeklyPoints":         state.WeeklyPoints,
		"contributionStreak":   state.ContributionStreak,
		"lastContributionDate": state.LastContributionDate,
		"updatedAt":            time.Now(),
	}})
	return err
}

// AllUsers loads the full user set for rank computation.
func (s *MongoUserStore) AllUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ApplyWeeklyReset snapshots the user's rank and zeroes weekly points in a
// single per-user update.
func (s *MongoUserStore) ApplyWeeklyReset(ctx context.Context, id primitive.ObjectID, previousRank int) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"previousRank": previousRank,
		"weeklyPoints": 0,
		"updatedAt":    time.Now(),
	}})
	return err
}
