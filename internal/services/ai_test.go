package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, content string) *AIService {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		})
	}))
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return NewAIServiceWithConfig(cfg)
}

func TestAIService_SuggestActivities(t *testing.T) {
	service := newFakeOpenAI(t, "```json\n"+`[
		{"activity_code": "B010", "name": "Deck footings", "duration_days": 2, "predecessor_codes": ["A070"]},
		{"activity_code": "B020", "name": "Deck framing", "duration_days": 4, "predecessor_codes": ["B010"]},
		{"activity_code": "B030", "name": "Orphan", "duration_days": 1, "predecessor_codes": ["Z999"]},
		{"activity_code": "A070", "name": "Reused code", "duration_days": 1},
		{"activity_code": "B040", "name": "Negative", "duration_days": -1},
		{"activity_code": "B050", "name": "Railings", "duration_days": 2}
	]`+"\n```")

	suggested, err := service.SuggestActivities(context.Background(), "Add a rear deck with railings", []string{"A070"})
	require.NoError(t, err)
	require.Len(t, suggested, 3)
	assert.Equal(t, "B010", suggested[0].ActivityCode)
	assert.Equal(t, []string{"B010"}, suggested[1].PredecessorCodes)
	assert.Equal(t, "B050", suggested[2].ActivityCode)
	assert.Equal(t, []string{}, suggested[2].PredecessorCodes)
}

func TestAIService_NothingUsable(t *testing.T) {
	service := newFakeOpenAI(t, "[]")

	_, err := service.SuggestActivities(context.Background(), "nothing to build", nil)
	assert.ErrorIs(t, err, ErrAINoActivitiesSuggested)

	_, err = service.SuggestActivities(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrSuggestTextRequired)
}

func TestAIService_NotConfigured(t *testing.T) {
	var service *AIService

	_, err := service.SuggestActivities(context.Background(), "deck", nil)
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
