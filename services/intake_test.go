package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeClassifier struct {
	judgment services.Judgment
	calls    int
}

func (f *fakeClassifier) AnalyzeReport(ctx context.Context, description string, image []byte, mimeType string) services.Judgment {
	f.calls++
	return f.judgment
}

type fakeGeocoder struct {
	result services.GeoResult
	calls  int
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) services.GeoResult {
	f.calls++
	return f.result
}

type fakeObjectStore struct {
	url   string
	err   error
	calls int
}

func (f *fakeObjectStore) Save(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeReportStore struct {
	reports   map[primitive.ObjectID]*models.Report
	inserted  []*models.Report
	insertErr error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: map[primitive.ObjectID]*models.Report{}}
}

func (f *fakeReportStore) Insert(ctx context.Context, report *models.Report) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, report)
	f.reports[report.ID] = report
	return nil
}

func (f *fakeReportStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	return f.reports[id], nil
}

func (f *fakeReportStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	report.Status = status
	return report, nil
}

func (f *fakeReportStore) SetResolution(ctx context.Context, id primitive.ObjectID, description, imageURL string, at time.Time) (*models.Report, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	report.Status = models.StatusResolved
	report.ResolutionDescription = description
	report.ResolvedImageURL = imageURL
	report.ResolvedAt = &at
	return report, nil
}

func (f *fakeReportStore) AddEngagement(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) (*models.Report, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	switch field {
	case services.EngagementUpvotes:
		report.Upvotes = append(report.Upvotes, userID)
	case services.EngagementConfirm:
		report.ConfirmIssue = append(report.ConfirmIssue, userID)
	}
	return report, nil
}

func (f *fakeReportStore) RemoveEngagement(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) (*models.Report, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	remove := func(ids []primitive.ObjectID) []primitive.ObjectID {
		out := ids[:0]
		for _, v := range ids {
			if v != userID {
				out = append(out, v)
			}
		}
		return out
	}
	switch field {
	case services.EngagementUpvotes:
		report.Upvotes = remove(report.Upvotes)
	case services.EngagementConfirm:
		report.ConfirmIssue = remove(report.ConfirmIssue)
	}
	return report, nil
}

type fakeUserStore struct {
	user     *models.User
	applied  []services.ContributionState
	applyErr error
}

func (f *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeUserStore) ApplyContribution(ctx context.Context, id primitive.ObjectID, state services.ContributionState) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, state)
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) NotifyStatusChange(toEmail, reportCategory, newStatus string) {
	f.sent = append(f.sent, toEmail+"/"+newStatus)
}

type intakeFixture struct {
	classifier *fakeClassifier
	geocoder   *fakeGeocoder
	objects    *fakeObjectStore
	reports    *fakeReportStore
	users      *fakeUserStore
	notifier   *fakeNotifier
	pipeline   *services.Intake
	user       *models.User
}

func relevantJudgment() services.Judgment {
	return services.Judgment{
		IsRelevant:     true,
		Category:       "Garbage Overflow",
		ParentCategory: models.Sanitation,
		Priority:       models.PriorityMedium,
		Justification:  "Text indicates garbage problem.",
	}
}

func newIntakeFixture() *intakeFixture {
	user := &models.User{
		ID:     primitive.NewObjectID(),
		Name:   "asha",
		Email:  "asha@example.com",
		Points: 40,
	}
	f := &intakeFixture{
		classifier: &fakeClassifier{judgment: relevantJudgment()},
		geocoder:   &fakeGeocoder{result: services.GeoResult{PostalCode: "395009", FormattedAddress: "12 Ring Road, Surat"}},
		objects:    &fakeObjectStore{url: "/uploads/abc123"},
		reports:    newFakeReportStore(),
		users:      &fakeUserStore{user: user},
		notifier:   &fakeNotifier{},
		user:       user,
	}
	f.pipeline = services.NewIntake(f.classifier, f.geocoder, f.objects, f.reports, f.users, f.notifier, zap.NewNop())
	return f
}

func validInput(f *intakeFixture) services.SubmitInput {
	return services.SubmitInput{
		Description: "kachra pada hai",
		Location:    models.Location{Lat: 21.17, Lng: 72.83},
		Image:       []byte{0xff, 0xd8},
		MimeType:    "image/jpeg",
		SubmittedBy: f.user.ID,
	}
}

func TestSubmitReport_Success(t *testing.T) {
	f := newIntakeFixture()

	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	assert.Equal(t, "Garbage Overflow", report.Category)
	assert.Equal(t, models.Sanitation, report.ParentCategory)
	assert.Equal(t, models.StatusSubmitted, report.Status)
	assert.Equal(t, "/uploads/abc123", report.ImageURL)
	assert.Equal(t, "395009", report.Pincode)
	assert.Equal(t, "12 Ring Road, Surat", report.FullAddress)
	assert.Equal(t, f.user.ID, report.SubmittedBy)
	assert.Nil(t, report.ResolvedAt)
	assert.Empty(t, report.ResolutionDescription)

	require.Len(t, f.reports.inserted, 1)
	require.Len(t, f.users.applied, 1)
	assert.Equal(t, 50, f.users.applied[0].Points)
	assert.Equal(t, 10, f.users.applied[0].WeeklyPoints)
	assert.Equal(t, 1, f.users.applied[0].ContributionStreak)
}

func TestSubmitReport_RequiresImage(t *testing.T) {
	f := newIntakeFixture()
	in := validInput(f)
	in.Image = nil

	_, err := f.pipeline.SubmitReport(context.Background(), in)

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, f.classifier.calls)
	assert.Zero(t, f.objects.calls)
	assert.Empty(t, f.reports.inserted)
}

func TestSubmitReport_RejectsIrrelevantWithZeroWrites(t *testing.T) {
	f := newIntakeFixture()
	f.classifier.judgment = services.Judgment{
		IsRelevant:    false,
		Justification: "No civic issue indicators.",
	}

	_, err := f.pipeline.SubmitReport(context.Background(), validInput(f))

	var rejectedErr *services.RejectedContentError
	require.ErrorAs(t, err, &rejectedErr)
	assert.Equal(t, "No civic issue indicators.", rejectedErr.Justification)

	assert.Zero(t, f.geocoder.calls, "rejected submissions must not be geocoded")
	assert.Zero(t, f.objects.calls, "rejected submissions must not store images")
	assert.Empty(t, f.reports.inserted)
	assert.Empty(t, f.users.applied)
}

func TestSubmitReport_StorageFailureAborts(t *testing.T) {
	f := newIntakeFixture()
	f.objects.err = errors.New("bucket unavailable")

	_, err := f.pipeline.SubmitReport(context.Background(), validInput(f))

	var storageErr *services.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Empty(t, f.reports.inserted, "no report row without a stored image")
	assert.Empty(t, f.users.applied)
}

func TestSubmitReport_ScoringFailureDoesNotLoseReport(t *testing.T) {
	f := newIntakeFixture()
	f.users.applyErr = errors.New("users collection unavailable")

	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))

	require.NoError(t, err, "report submission must survive a scoring failure")
	require.NotNil(t, report)
	assert.Len(t, f.reports.inserted, 1)
}

func TestSubmitReport_StreakResetAfterGap(t *testing.T) {
	f := newIntakeFixture()
	threeDaysAgo := time.Now().AddDate(0, 0, -3)
	f.user.Points = 70
	f.user.ContributionStreak = 5
	f.user.LastContributionDate = &threeDaysAgo

	_, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	require.Len(t, f.users.applied, 1)
	assert.Equal(t, 1, f.users.applied[0].ContributionStreak)
	assert.Equal(t, 80, f.users.applied[0].Points)
}

func TestToggleUpvote_Idempotent(t *testing.T) {
	f := newIntakeFixture()
	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	voter := primitive.NewObjectID()

	after, err := f.pipeline.ToggleUpvote(context.Background(), report.ID, voter)
	require.NoError(t, err)
	assert.True(t, after.HasUpvoted(voter))

	after, err = f.pipeline.ToggleUpvote(context.Background(), report.ID, voter)
	require.NoError(t, err)
	assert.False(t, after.HasUpvoted(voter))
	assert.Empty(t, after.Upvotes)
}

func TestToggleConfirm_IndependentOfUpvotes(t *testing.T) {
	f := newIntakeFixture()
	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	user := primitive.NewObjectID()

	after, err := f.pipeline.ToggleUpvote(context.Background(), report.ID, user)
	require.NoError(t, err)

	after, err = f.pipeline.ToggleConfirm(context.Background(), report.ID, user)
	require.NoError(t, err)
	assert.True(t, after.HasUpvoted(user))
	assert.True(t, after.HasConfirmed(user))
}

func TestToggleUpvote_NotFound(t *testing.T) {
	f := newIntakeFixture()

	_, err := f.pipeline.ToggleUpvote(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())

	var notFoundErr *services.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestResolveReport_SetsWholeFacet(t *testing.T) {
	f := newIntakeFixture()
	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	f.objects.url = "/uploads/after456"
	resolved, err := f.pipeline.ResolveReport(context.Background(), report.ID, "Garbage cleared by sanitation crew.", []byte{0xff}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, models.StatusResolved, resolved.Status)
	assert.Equal(t, "Garbage cleared by sanitation crew.", resolved.ResolutionDescription)
	assert.Equal(t, "/uploads/after456", resolved.ResolvedImageURL)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestResolveReport_RequiresDescriptionAndImage(t *testing.T) {
	f := newIntakeFixture()
	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	var validationErr *services.ValidationError

	_, err = f.pipeline.ResolveReport(context.Background(), report.ID, "  ", []byte{0xff}, "image/jpeg")
	require.ErrorAs(t, err, &validationErr)

	_, err = f.pipeline.ResolveReport(context.Background(), report.ID, "done", nil, "image/jpeg")
	require.ErrorAs(t, err, &validationErr)

	// The facet stays unset until a resolve succeeds.
	current, _ := f.reports.FindByID(context.Background(), report.ID)
	assert.Nil(t, current.ResolvedAt)
	assert.Empty(t, current.ResolutionDescription)
	assert.Empty(t, current.ResolvedImageURL)
}

func TestResolveReport_NotFound(t *testing.T) {
	f := newIntakeFixture()

	_, err := f.pipeline.ResolveReport(context.Background(), primitive.NewObjectID(), "done", []byte{0xff}, "image/jpeg")

	var notFoundErr *services.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Zero(t, f.objects.calls, "no image stored for a missing report")
}

func TestUpdateStatus_NotifiesSubmitter(t *testing.T) {
	f := newIntakeFixture()
	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	updated, err := f.pipeline.UpdateStatus(context.Background(), report.ID, "in-progress")
	require.NoError(t, err)

	assert.Equal(t, "in-progress", updated.Status)
	assert.Equal(t, []string{"asha@example.com/in-progress"}, f.notifier.sent)
}

func TestUpdateStatus_RejectsResolvedShortcut(t *testing.T) {
	f := newIntakeFixture()
	report, err := f.pipeline.SubmitReport(context.Background(), validInput(f))
	require.NoError(t, err)

	_, err = f.pipeline.UpdateStatus(context.Background(), report.ID, models.StatusResolved)

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)

	current, _ := f.reports.FindByID(context.Background(), report.ID)
	assert.Equal(t, models.StatusSubmitted, current.Status)
	assert.Nil(t, current.ResolvedAt)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newIntakeFixture()

	_, err := f.pipeline.UpdateStatus(context.Background(), primitive.NewObjectID(), "in-progress")

	var notFoundErr *services.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Empty(t, f.notifier.sent)
}
