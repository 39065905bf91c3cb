package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicpulse-be/config"
	"civicpulse-be/models"
	"civicpulse-be/services"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClassifier(baseURL string) *services.GeminiClassifier {
	return services.NewGeminiClassifier(config.Settings{
		GeminiAPIKey:  "test-key",
		GeminiModel:   "gemini-1.5-flash",
		GeminiBaseURL: baseURL,
	}, zap.NewNop())
}

func geminiReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(body)
}

func TestAnalyzeReport_ParsesFencedJSON(t *testing.T) {
	reply := "```json\n{\"isRelevant\": true, \"category\": \"Garbage Overflow\", \"parentCategory\": \"Sanitation\", \"priority\": \"Medium\", \"justification\": \"Text indicates garbage problem.\"}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiReply(reply)))
	}))
	defer srv.Close()

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "kachra pada hai", []byte{0xff}, "image/jpeg")

	assert.True(t, judgment.IsRelevant)
	assert.Equal(t, "Garbage Overflow", judgment.Category)
	assert.Equal(t, models.Sanitation, judgment.ParentCategory)
	assert.Equal(t, models.PriorityMedium, judgment.Priority)
}

func TestAnalyzeReport_IrrelevantVerdict(t *testing.T) {
	reply := "{\"isRelevant\": false, \"category\": \"Irrelevant Content\", \"parentCategory\": \"Other\", \"priority\": \"Low\", \"justification\": \"No civic issue indicators.\"}"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply(reply)))
	}))
	defer srv.Close()

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "lol random", []byte{0xff}, "image/jpeg")

	assert.False(t, judgment.IsRelevant)
}

func TestAnalyzeReport_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "broken street light", []byte{0xff}, "image/jpeg")

	assert.Equal(t, services.FallbackJudgment(), judgment)
	assert.True(t, judgment.IsRelevant)
	assert.Equal(t, "Uncategorized", judgment.Category)
	assert.Equal(t, models.OtherCategory, judgment.ParentCategory)
	assert.Equal(t, models.PriorityMedium, judgment.Priority)
}

func TestAnalyzeReport_FallbackOnUnparsableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply("I cannot classify this image, sorry.")))
	}))
	defer srv.Close()

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "pothole", []byte{0xff}, "image/jpeg")

	assert.Equal(t, services.FallbackJudgment(), judgment)
}

func TestAnalyzeReport_FallbackOnMissingFields(t *testing.T) {
	reply := "{\"isRelevant\": true}"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply(reply)))
	}))
	defer srv.Close()

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "pothole", []byte{0xff}, "image/jpeg")

	assert.Equal(t, services.FallbackJudgment(), judgment)
}

func TestAnalyzeReport_CoercesUnknownEnumValues(t *testing.T) {
	reply := "{\"isRelevant\": true, \"category\": \"Weird Thing\", \"parentCategory\": \"Aliens\", \"priority\": \"Urgent\", \"justification\": \"x\"}"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply(reply)))
	}))
	defer srv.Close()

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "pothole", []byte{0xff}, "image/jpeg")

	assert.True(t, judgment.IsRelevant)
	assert.Equal(t, models.OtherCategory, judgment.ParentCategory)
	assert.Equal(t, models.PriorityMedium, judgment.Priority)
}

func TestAnalyzeReport_FallbackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	judgment := newTestClassifier(srv.URL).AnalyzeReport(context.Background(), "pothole", []byte{0xff}, "image/jpeg")

	assert.Equal(t, services.FallbackJudgment(), judgment)
}
