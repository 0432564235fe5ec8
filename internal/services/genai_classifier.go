package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/BradenHooton/taskdesk/internal/models"
	"google.golang.org/genai"
)

var ErrInvalidClassification = errors.New("invalid classification response")

var validPriorities = map[string]struct{}{"low": {}, "medium": {}, "high": {}}

const classificationPrompt = "Classify the task and respond ONLY with JSON containing keys: " +
	"category (string), priority (low|medium|high), estimated_duration (integer minutes).\n\n" +
	"Title: %s\nDescription: %s"

// contentGenerator is the part of *genai.Models the classifier uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIClassifier classifies tasks with a Gemini model
type GenAIClassifier struct {
	models contentGenerator
	model  string
	logger *slog.Logger
}

// NewGenAIClassifier creates a classifier backed by the Gemini API
func NewGenAIClassifier(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GenAIClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("gemini model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGenAIClassifier(client.Models, model, logger), nil
}

func newGenAIClassifier(gen contentGenerator, model string, logger *slog.Logger) *GenAIClassifier {
	return &GenAIClassifier{models: gen, model: model, logger: logger}
}

// ClassifyTask asks the model for a JSON classification. Missing or malformed
// fields fall back to DefaultTaskClassification individually; a response that
// is not a JSON object is an error.
func (c *GenAIClassifier) ClassifyTask(ctx context.Context, title, description string) (models.TaskClassification, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: fmt.Sprintf(classificationPrompt, title, description)}},
	}}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return models.TaskClassification{}, fmt.Errorf("gemini request failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return models.TaskClassification{}, err
	}

	result, err := parseClassification(text)
	if err != nil {
		return models.TaskClassification{}, err
	}

	c.logger.DebugContext(ctx, "task classified",
		slog.String("category", result.Category),
		slog.String("priority", result.Priority),
		slog.Int("estimated_duration", result.EstimatedDuration),
	)
	return result, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrInvalidClassification)
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return "", fmt.Errorf("%w: empty content", ErrInvalidClassification)
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func parseClassification(text string) (models.TaskClassification, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return models.TaskClassification{}, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}

	result := models.DefaultTaskClassification

	if v, ok := payload["category"]; ok && v != nil {
		if category := strings.TrimSpace(fmt.Sprint(v)); category != "" {
			result.Category = category
		}
	}

	if v, ok := payload["priority"].(string); ok {
		if priority := strings.ToLower(strings.TrimSpace(v)); isValidPriority(priority) {
			result.Priority = priority
		}
	}

	if minutes, ok := durationMinutes(payload["estimated_duration"]); ok {
		result.EstimatedDuration = minutes
	}

	return result, nil
}

func isValidPriority(p string) bool {
	_, ok := validPriorities[p]
	return ok
}

// durationMinutes accepts a JSON number or numeric string within the stored range
func durationMinutes(v any) (int, bool) {
	var minutes int
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || n < 1 || n > models.MaxEstimatedDuration {
			return 0, false
		}
		minutes = int(n)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		minutes = parsed
	default:
		return 0, false
	}

	if minutes < 1 || minutes > models.MaxEstimatedDuration {
		return 0, false
	}
	return minutes, true
}
