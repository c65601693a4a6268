package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/construction-schedule-api/internal/constants"
)

var (
	ErrAIServiceNotConfigured  = errors.New("AI service is not configured")
	ErrAINoActivitiesSuggested = errors.New("AI did not suggest any activities")
	ErrSuggestTextRequired     = errors.New("text is required")
)

type AIService struct {
	client *openai.Client
}

// SuggestedActivity is an activity proposed from free text. Predecessors are
// given by code and refer to earlier suggestions or to existing activities.
type SuggestedActivity struct {
	ActivityCode     string   `json:"activity_code"`
	Name             string   `json:"name"`
	DurationDays     int      `json:"duration_days"`
	PredecessorCodes []string `json:"predecessor_codes"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// NewAIServiceWithConfig creates an AIService with a custom client config,
// e.g. a different base URL.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
	}
}

// SuggestActivities asks the model to break a scope description into
// schedule activities. Nothing is persisted; suggestions that would not form a
// valid network on top of existingCodes are dropped.
func (s *AIService) SuggestActivities(ctx context.Context, text string, existingCodes []string) ([]SuggestedActivity, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrSuggestTextRequired
	}

	existing := "(none)"
	if len(existingCodes) > 0 {
		existing = strings.Join(existingCodes, ", ")
	}

	prompt := fmt.Sprintf(`You are a residential construction scheduler. Break the scope below into schedule activities.

Existing activity codes in the schedule: %s

Scope:
%s

Return only a JSON array, no prose:
[
  {
    "activity_code": "short unique code, e.g. B010",
    "name": "activity name",
    "duration_days": whole number of working days, 0 or more,
    "predecessor_codes": ["codes that must finish first, either listed earlier in this array or existing codes"]
  }
]

Rules:
- Return [] if the text describes no work
- Do not reuse an existing code for a new activity
- At most %d activities`, existing, text, constants.MaxSuggestedActivities)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var suggested []SuggestedActivity
	if err := json.Unmarshal([]byte(content), &suggested); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	valid := filterSuggestions(suggested, existingCodes)
	if len(valid) == 0 {
		return nil, ErrAINoActivitiesSuggested
	}
	return valid, nil
}

// filterSuggestions keeps suggestions whose code is new and whose
// predecessors are already known, which keeps the proposal acyclic.
func filterSuggestions(suggested []SuggestedActivity, existingCodes []string) []SuggestedActivity {
	known := make(map[string]struct{}, len(existingCodes)+len(suggested))
	for _, code := range existingCodes {
		known[code] = struct{}{}
	}

	out := make([]SuggestedActivity, 0, len(suggested))
	for _, a := range suggested {
		if len(out) == constants.MaxSuggestedActivities {
			break
		}

		a.ActivityCode = strings.TrimSpace(a.ActivityCode)
		a.Name = strings.TrimSpace(a.Name)
		if a.ActivityCode == "" || a.Name == "" || a.DurationDays < 0 {
			continue
		}
		if _, dup := known[a.ActivityCode]; dup {
			continue
		}

		ok := true
		for _, p := range a.PredecessorCodes {
			if _, found := known[p]; !found {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		if a.PredecessorCodes == nil {
			a.PredecessorCodes = []string{}
		}
		known[a.ActivityCode] = struct{}{}
		out = append(out, a)
	}
	return out
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
