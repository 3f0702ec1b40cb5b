package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/entitlement"
	"server/internal/infra"
	"server/internal/middleware"
)

// AccessGate is the entitlement surface handlers depend on. The
// production implementation is *entitlement.Gatekeeper.
type AccessGate interface {
	Authorize(ctx context.Context, userID string, req entitlement.Request) (*domain.AccessResult, error)
	Snapshot(ctx context.Context, userID string) (*domain.EntitlementRecord, error)
}

// ChatCompleter relays a conversation to the text-coach LLM.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Message mirrors the provider chat message shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VoiceProvider issues voice-session tokens and prosody jobs.
type VoiceProvider interface {
	AccessToken(ctx context.Context) (*VoiceToken, error)
	SubmitProsodyJob(ctx context.Context, accessToken, audioData string) (string, error)
}

// VoiceToken is the bearer token relayed to the voice widget.
type VoiceToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// App bundles the dependencies shared by all gate handlers.
type App struct {
	Logger    zerolog.Logger
	SQL       infra.SQLExecutor
	Directory domain.UserDirectory
	Gate      AccessGate
	Chat      ChatCompleter
	Voice     VoiceProvider

	VoiceSessionCost int
	ChatCreditCost   int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": msg, "code": errCode})
}

var insufficientMessages = map[string]string{
	"en": "not enough credits",
	"es": "créditos insuficientes",
}

func insufficientMessage(ctx context.Context) string {
	if msg, ok := insufficientMessages[middleware.LocaleFromContext(ctx)]; ok {
		return msg
	}
	return insufficientMessages["en"]
}
