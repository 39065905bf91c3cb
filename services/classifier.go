package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civicpulse-be/config"
	"civicpulse-be/models"

	"go.uber.org/zap"
)

// Judgment is the structured classification of a submitted report.
type Judgment struct {
	IsRelevant     bool
	Category       string
	ParentCategory models.ParentCategory
	Priority       models.Priority
	Justification  string
}

// Classifier turns an image plus free-text description into a Judgment.
type Classifier interface {
	AnalyzeReport(ctx context.Context, description string, image []byte, mimeType string) Judgment
}

// FallbackJudgment is returned whenever the external classifier fails or
// answers with something unparsable. Relevance defaults to true so that an AI
// outage can never block citizen reports.
func FallbackJudgment() Judgment {
	return Judgment{
		IsRelevant:     true,
		Category:       "Uncategorized",
		ParentCategory: models.OtherCategory,
		Priority:       models.PriorityMedium,
		Justification:  "AI analysis failed. Please review manually.",
	}
}

// GeminiClassifier calls the Gemini generateContent endpoint with the image
// inlined as base64 plus a strict JSON-only prompt.
type GeminiClassifier struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewGeminiClassifier(cfg config.Settings, log *zap.Logger) *GeminiClassifier {
	return &GeminiClassifier{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// rawJudgment mirrors the JSON object the model is instructed to emit.
type rawJudgment struct {
	IsRelevant     *bool  `json:"isRelevant"`
	Category       string `json:"category"`
	ParentCategory string `json:"parentCategory"`
	Priority       string `json:"priority"`
	Justification  string `json:"justification"`
}

const classifierPrompt = `You are an AI assistant for a smart city civic-issue reporting platform. Your prime directive is that ZERO valid citizen complaints are ever rejected. Analyze the uploaded IMAGE and the TEXT description for any potential real-world civic issue.

Bias rules (override everything else):
- It is acceptable to approve ten irrelevant reports; rejecting one valid report is a critical failure.
- Check the TEXT first with extreme sensitivity. Complaints may be in English, Hindi or Gujarati written in Latin script (kachra/kachro = garbage, sadak/rasto = road, tuti/tutelu = broken, bijli/light = electricity, pani/paani = water, naali = drain). A single word that could relate to a civic issue means isRelevant must be true.
- Only if the text gives nothing, look at the IMAGE for potholes, garbage, broken lights, hanging wires, flooding, fallen trees or similar.
- Set isRelevant to false only when BOTH the image and the text have zero plausible connection to any civic issue.

Respond ONLY with a single valid JSON object and nothing else, with these keys in this order: isRelevant, category, parentCategory, priority, justification.
- isRelevant: boolean
- category: short Title Case label, max 4 words (e.g. "Garbage Overflow")
- parentCategory: one of ["Roads", "Electrical", "Sanitation", "Environment", "Infrastructure", "Other"]
- priority: one of ["High", "Medium", "Low"] (High for safety hazards, Low for minor aesthetic issues)
- justification: one short sentence explaining the decision

TEXT_DESCRIPTION = %q`

// AnalyzeReport classifies the submission. It never returns an error: every
// failure path collapses into FallbackJudgment.
func (c *GeminiClassifier) AnalyzeReport(ctx context.Context, description string, image []byte, mimeType string) Judgment {
	text, err := c.generate(ctx, description, image, mimeType)
	if err != nil {
		c.log.Warn("classifier call failed, using fallback judgment", zap.Error(err))
		return FallbackJudgment()
	}

	judgment, err := parseJudgment(text)
	if err != nil {
		c.log.Warn("classifier returned unparsable output, using fallback judgment",
			zap.Error(err))
		return FallbackJudgment()
	}
	return judgment
}

func (c *GeminiClassifier) generate(ctx context.Context, description string, image []byte, mimeType string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: fmt.Sprintf(classifierPrompt, description)},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp geminiResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response contained no candidates")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// parseJudgment converts the model's free-form text into a validated Judgment.
// The response may be wrapped in markdown code fences or surrounded by prose.
func parseJudgment(text string) (Judgment, error) {
	jsonStr, err := extractJSON(text)
	if err != nil {
		return Judgment{}, err
	}

	var raw rawJudgment
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return Judgment{}, fmt.Errorf("judgment is not valid JSON: %w", err)
	}
	if raw.IsRelevant == nil || raw.Category == "" || raw.Priority == "" {
		return Judgment{}, fmt.Errorf("judgment is missing required fields")
	}

	parent, _ := models.ParseParentCategory(raw.ParentCategory)
	priority, _ := models.ParsePriority(raw.Priority)

	return Judgment{
		IsRelevant:     *raw.IsRelevant,
		Category:       raw.Category,
		ParentCategory: parent,
		Priority:       priority,
		Justification:  raw.Justification,
	}, nil
}

// extractJSON strips markdown code fences and slices out the first JSON
// object found in the response.
func extractJSON(response string) (string, error) {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return response[start : end+1], nil
}
