package main

import (
	"context"

	"server/internal/http/handlers"
	"server/internal/providers/groq"
	"server/internal/providers/hume"
)

// chatAdapter bridges the handler-facing chat contract to the Groq client.
type chatAdapter struct {
	client *groq.Client
}

func (c chatAdapter) Complete(ctx context.Context, messages []handlers.Message) (string, error) {
	converted := make([]groq.Message, len(messages))
	for i, m := range messages {
		converted[i] = groq.Message{Role: m.Role, Content: m.Content}
	}
	return c.client.Complete(ctx, converted)
}

// voiceAdapter bridges the handler-facing voice contract to the Hume client.
type voiceAdapter struct {
	client *hume.Client
}

func (v voiceAdapter) AccessToken(ctx context.Context) (*handlers.VoiceToken, error) {
	token, err := v.client.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return &handlers.VoiceToken{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		TokenType:   token.TokenType,
	}, nil
}

func (v voiceAdapter) SubmitProsodyJob(ctx context.Context, accessToken, audioData string) (string, error) {
	return v.client.SubmitProsodyJob(ctx, accessToken, audioData)
}
