package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/entitlement"
	"server/internal/providers/groq"
)

type coachAccessRequest struct {
	Email string `json:"email"`
}

type coachAccessResponse struct {
	Allow                 bool   `json:"allow"`
	Mode                  string `json:"mode"`
	Plan                  string `json:"plan"`
	CreditsRemaining      int    `json:"credits_remaining"`
	VoiceCreditsRemaining int    `json:"voice_credits_remaining"`
	FreeTrialUsed         bool   `json:"free_trial_used"`
}

// CoachAccess is the gatekeeper for voice coach sessions: VIP bypass,
// then the one-time free trial, then paid voice credits.
func (a *App) CoachAccess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req coachAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	user, ok := a.resolveUser(w, r, req.Email)
	if !ok {
		return
	}

	result, err := a.Gate.Authorize(r.Context(), user.ID, entitlement.Request{
		Kind:          domain.FeatureVoice,
		Cost:          a.VoiceSessionCost,
		TrialEligible: true,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("coach access decision failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to decide access")
		return
	}

	a.recordUsage(r.Context(), user.ID, "coach_access", result, a.VoiceSessionCost, start)

	status := http.StatusOK
	if !result.Allow {
		status = http.StatusPaymentRequired
	}
	a.json(w, status, coachAccessResponse{
		Allow:                 result.Allow,
		Mode:                  string(result.Mode),
		Plan:                  string(result.Record.Plan),
		CreditsRemaining:      result.Record.CreditsRemaining,
		VoiceCreditsRemaining: result.Record.VoiceCreditsRemaining,
		FreeTrialUsed:         result.Record.FreeTrialUsed,
	})
}

type coachChatRequest struct {
	Email      string         `json:"email"`
	Coach      string         `json:"coach"`
	Message    string         `json:"message"`
	History    []Message      `json:"history"`
	Assessment map[string]any `json:"assessment"`
}

type coachChatResponse struct {
	OK               bool   `json:"ok"`
	Coach            string `json:"coach"`
	Specialty        string `json:"specialty"`
	Reply            string `json:"reply"`
	CreditsRemaining int    `json:"credits_remaining"`
}

const maxHistoryMessages = 10

// CoachChat relays one text-coach turn to the LLM, gated on daily
// credits. A provider failure after the spend is not refunded; the
// spend is final once decided.
func (a *App) CoachChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req coachChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Message == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "message required")
		return
	}
	if a.Chat == nil {
		a.error(w, http.StatusInternalServerError, "misconfigured", "chat provider not configured")
		return
	}

	user, ok := a.resolveUser(w, r, req.Email)
	if !ok {
		return
	}

	result, err := a.Gate.Authorize(r.Context(), user.ID, entitlement.Request{
		Kind: domain.FeatureDaily,
		Cost: a.ChatCreditCost,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("coach chat gate failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to decide access")
		return
	}

	a.recordUsage(r.Context(), user.ID, "coach_chat", result, a.ChatCreditCost, start)

	if !result.Allow {
		a.json(w, http.StatusPaymentRequired, creditsDeniedResponse{
			Error:                 insufficientMessage(r.Context()),
			Mode:                  string(result.Mode),
			Plan:                  string(result.Record.Plan),
			CreditsRemaining:      result.Record.CreditsRemaining,
			VoiceCreditsRemaining: result.Record.VoiceCreditsRemaining,
		})
		return
	}

	persona := groq.LookupPersona(req.Coach)
	messages := []Message{{Role: "system", Content: persona.System}}
	if len(req.Assessment) > 0 {
		ctxJSON, _ := json.Marshal(req.Assessment)
		messages = append(messages, Message{
			Role:    "system",
			Content: "User's health assessment data: " + string(ctxJSON) + ". Use it to personalize replies without quoting it back.",
		})
	}
	history := req.History
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: req.Message})

	reply, err := a.Chat.Complete(r.Context(), messages)
	if err != nil {
		a.Logger.Error().Err(err).Str("coach", persona.Key).Msg("chat completion failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "coach is unavailable right now")
		return
	}

	a.json(w, http.StatusOK, coachChatResponse{
		OK:               true,
		Coach:            persona.Name,
		Specialty:        persona.Specialty,
		Reply:            reply,
		CreditsRemaining: result.Record.CreditsRemaining,
	})
}
