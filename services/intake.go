package services

import (
	"context"
	"strings"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Engagement set field names on the report document.
const (
	EngagementUpvotes = "upvotes"
	EngagementConfirm = "confirmIssue"
)

// ReportStore is the persistence boundary for reports. Lookup methods return
// (nil, nil) when the report does not exist.
type ReportStore interface {
	Insert(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error)
	SetResolution(ctx context.Context, id primitive.ObjectID, description, imageURL string, at time.Time) (*models.Report, error)
	AddEngagement(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) (*models.Report, error)
	RemoveEngagement(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) (*models.Report, error)
}

// UserStore is the persistence boundary for user gamification state. FindByID
// returns (nil, nil) when the user does not exist.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ApplyContribution(ctx context.Context, id primitive.ObjectID, state ContributionState) error
}

// SubmitInput is everything a report submission carries.
type SubmitInput struct {
	Description string
	Location    models.Location
	Image       []byte
	MimeType    string
	SubmittedBy primitive.ObjectID
}

// Intake orchestrates report submission and lifecycle operations. All
// collaborators are injected so tests can substitute fakes.
type Intake struct {
	classifier Classifier
	geocoder   Geocoder
	objects    ObjectStore
	reports    ReportStore
	users      UserStore
	notifier   Notifier
	log        *zap.Logger
	now        func() time.Time
}

func NewIntake(classifier Classifier, geocoder Geocoder, objects ObjectStore, reports ReportStore, users UserStore, notifier Notifier, log *zap.Logger) *Intake {
	return &Intake{
		classifier: classifier,
		geocoder:   geocoder,
		objects:    objects,
		reports:    reports,
		users:      users,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// SubmitReport runs the intake pipeline: validate, classify, gate on
// relevance, geocode, store the image, persist the report, then award
// contribution points. Only the relevance gate is a deterministic hard
// rejection; classifier and geocoder failures are absorbed by their adapters.
func (p *Intake) SubmitReport(ctx context.Context, in SubmitInput) (*models.Report, error) {
	if len(in.Image) == 0 {
		return nil, &ValidationError{Message: "Image file is required."}
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, &ValidationError{Message: "Description is required."}
	}

	judgment := p.classifier.AnalyzeReport(ctx, in.Description, in.Image, in.MimeType)
	if !judgment.IsRelevant {
		return nil, &RejectedContentError{Justification: judgment.Justification}
	}

	geo := p.geocoder.ReverseGeocode(ctx, in.Location.Lat, in.Location.Lng)

	imageURL, err := p.objects.Save(ctx, in.Image, in.MimeType, "civic-reports")
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	report := &models.Report{
		ID:             primitive.NewObjectID(),
		Description:    in.Description,
		Category:       judgment.Category,
		ParentCategory: judgment.ParentCategory,
		Priority:       judgment.Priority,
		Location:       in.Location,
		Pincode:        geo.PostalCode,
		FullAddress:    geo.FormattedAddress,
		ImageURL:       imageURL,
		Status:         models.StatusSubmitted,
		SubmittedBy:    in.SubmittedBy,
		Upvotes:        []primitive.ObjectID{},
		ConfirmIssue:   []primitive.ObjectID{},
		CreatedAt:      p.now(),
	}
	if err := p.reports.Insert(ctx, report); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	// Best-effort relative to report creation: losing gamification credit is
	// preferable to losing a citizen report. Divergence is logged for
	// reconciliation.
	if err := p.awardContribution(ctx, in.SubmittedBy); err != nil {
		p.log.Error("report persisted but contribution points were not awarded",
			zap.String("reportId", report.ID.Hex()),
			zap.String("userId", in.SubmittedBy.Hex()),
			zap.Error(err))
	}

	return report, nil
}

func (p *Intake) awardContribution(ctx context.Context, userID primitive.ObjectID) error {
	user, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return &NotFoundError{Message: "User not found."}
	}

	state := AdvanceContribution(ContributionState{
		Points:               user.Points,
		WeeklyPoints:         user.WeeklyPoints,
		ContributionStreak:   user.ContributionStreak,
		LastContributionDate: user.LastContributionDate,
	}, p.now())

	return p.users.ApplyContribution(ctx, userID, state)
}

// ResolveReport transitions a report to its terminal resolved status. The
// resolution description, after-image reference and resolvedAt timestamp are
// the facet only this operation may set, and it sets all three together.
func (p *Intake) ResolveReport(ctx context.Context, id primitive.ObjectID, description string, image []byte, mimeType string) (*models.Report, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &ValidationError{Message: "Resolution description is required."}
	}
	if len(image) == 0 {
		return nil, &ValidationError{Message: "Resolution image is required."}
	}

	report, err := p.reports.FindByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if report == nil {
		return nil, &NotFoundError{Message: "Report not found."}
	}

	imageURL, err := p.objects.Save(ctx, image, mimeType, "civic-resolutions")
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	resolved, err := p.reports.SetResolution(ctx, id, description, imageURL, p.now())
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if resolved == nil {
		return nil, &NotFoundError{Message: "Report not found."}
	}
	return resolved, nil
}

// UpdateStatus persists a non-terminal workflow status and notifies the
// submitting user by email, fire-and-forget. Transitioning to resolved must go
// through ResolveReport so the resolution facet is never half-set.
func (p *Intake) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error) {
	if strings.TrimSpace(status) == "" {
		return nil, &ValidationError{Message: "Status is required."}
	}
	if status == models.StatusResolved {
		return nil, &ValidationError{Message: "Use the resolve operation to mark a report resolved."}
	}

	report, err := p.reports.SetStatus(ctx, id, status)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if report == nil {
		return nil, &NotFoundError{Message: "Report not found."}
	}

	if user, err := p.users.FindByID(ctx, report.SubmittedBy); err == nil && user != nil {
		p.notifier.NotifyStatusChange(user.Email, report.Category, report.Status)
	} else if err != nil {
		p.log.Warn("could not load submitter for status notification",
			zap.String("reportId", id.Hex()), zap.Error(err))
	}

	return report, nil
}

// ToggleUpvote flips the acting user's membership in the upvote set.
func (p *Intake) ToggleUpvote(ctx context.Context, id, userID primitive.ObjectID) (*models.Report, error) {
	return p.toggleEngagement(ctx, id, userID, EngagementUpvotes)
}

// ToggleConfirm flips the acting user's membership in the confirm-issue set.
func (p *Intake) ToggleConfirm(ctx context.Context, id, userID primitive.ObjectID) (*models.Report, error) {
	return p.toggleEngagement(ctx, id, userID, EngagementConfirm)
}

func (p *Intake) toggleEngagement(ctx context.Context, id, userID primitive.ObjectID, field string) (*models.Report, error) {
	report, err := p.reports.FindByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if report == nil {
		return nil, &NotFoundError{Message: "Report not found."}
	}

	var member bool
	switch field {
	case EngagementUpvotes:
		member = report.HasUpvoted(userID)
	case EngagementConfirm:
		member = report.HasConfirmed(userID)
	}

	var updated *models.Report
	if member {
		updated, err = p.reports.RemoveEngagement(ctx, id, field, userID)
	} else {
		updated, err = p.reports.AddEngagement(ctx, id, field, userID)
	}
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if updated == nil {
		return nil, &NotFoundError{Message: "Report not found."}
	}
	return updated, nil
}
