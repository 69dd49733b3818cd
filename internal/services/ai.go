package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/collab-match-api/internal/constants"
	"github.com/yukikurage/collab-match-api/internal/models"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoDraftGenerated     = errors.New("AI did not generate a usable message")
)

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// NewAIServiceWithConfig builds the service from an explicit client config,
// e.g. to point it at a different base URL.
func NewAIServiceWithConfig(config openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(config),
		model:  openai.GPT4o,
	}
}

// DraftRequestMessage writes a short participation request for project,
// based on what the requester says about themselves.
func (s *AIService) DraftRequestMessage(ctx context.Context, project *models.Project, intro string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You help people ask to join startup projects.
Write a friendly request message to the owner of the project below.

Project title: %s
Project description:
%s

About the person asking to join:
%s

Rules:
- Between %d and %d characters
- Mention concretely how the person could contribute
- Plain text only, no greeting line and no signature`,
		project.Title,
		project.Description,
		strings.TrimSpace(intro),
		constants.MinMatchMessageLength,
		constants.MaxMatchMessageLength,
	)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.7,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
