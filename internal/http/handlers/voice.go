package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/entitlement"
)

type voiceTokenRequest struct {
	Email string `json:"email"`
}

type voiceCreditsDTO struct {
	Plan                  string `json:"plan"`
	VoiceCreditsRemaining int    `json:"voice_credits_remaining"`
	SkippedDecrement      bool   `json:"skipped_decrement"`
}

type voiceTokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	TokenType   string          `json:"token_type"`
	Credits     voiceCreditsDTO `json:"credits"`
}

// VoiceToken exchanges provider credentials for a session token after
// the voice-credit gate allows the session. The free trial is the
// coach gate's to grant, not this one's.
func (a *App) VoiceToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req voiceTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if a.Voice == nil {
		a.error(w, http.StatusInternalServerError, "misconfigured", "voice provider credentials not configured")
		return
	}

	user, ok := a.resolveUser(w, r, req.Email)
	if !ok {
		return
	}

	result, err := a.Gate.Authorize(r.Context(), user.ID, entitlement.Request{
		Kind: domain.FeatureVoice,
		Cost: a.VoiceSessionCost,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("voice token gate failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to decide access")
		return
	}

	a.recordUsage(r.Context(), user.ID, "voice_token", result, a.VoiceSessionCost, start)

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

	token, err := a.Voice.AccessToken(r.Context())
	if err != nil {
		// The spend above is already committed and stays committed.
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("voice token exchange failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "voice provider authentication failed")
		return
	}

	a.json(w, http.StatusOK, voiceTokenResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		TokenType:   token.TokenType,
		Credits: voiceCreditsDTO{
			Plan:                  string(result.Record.Plan),
			VoiceCreditsRemaining: result.Record.VoiceCreditsRemaining,
			SkippedDecrement:      result.SkippedDecrement(),
		},
	})
}

type voiceAnalyzeRequest struct {
	Email string `json:"email"`
	Audio string `json:"audio"`
}

type voiceAnalyzeResponse struct {
	OK      bool            `json:"ok"`
	JobID   string          `json:"job_id"`
	Status  string          `json:"status"`
	Credits voiceCreditsDTO `json:"credits"`
}

// VoiceAnalyze submits one prosody batch job for the caller's audio,
// gated the same way as a token issuance.
func (a *App) VoiceAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req voiceAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Audio == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "audio required")
		return
	}
	if a.Voice == nil {
		a.error(w, http.StatusInternalServerError, "misconfigured", "voice provider credentials not configured")
		return
	}

	user, ok := a.resolveUser(w, r, req.Email)
	if !ok {
		return
	}

	result, err := a.Gate.Authorize(r.Context(), user.ID, entitlement.Request{
		Kind: domain.FeatureVoice,
		Cost: a.VoiceSessionCost,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("voice analyze gate failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to decide access")
		return
	}

	a.recordUsage(r.Context(), user.ID, "voice_analyze", result, a.VoiceSessionCost, start)

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

	token, err := a.Voice.AccessToken(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("voice token exchange failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "voice provider authentication failed")
		return
	}
	jobID, err := a.Voice.SubmitProsodyJob(r.Context(), token.AccessToken, req.Audio)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("prosody job submission failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "voice analysis failed")
		return
	}

	a.json(w, http.StatusOK, voiceAnalyzeResponse{
		OK:     true,
		JobID:  jobID,
		Status: "submitted",
		Credits: voiceCreditsDTO{
			Plan:                  string(result.Record.Plan),
			VoiceCreditsRemaining: result.Record.VoiceCreditsRemaining,
			SkippedDecrement:      result.SkippedDecrement(),
		},
	})
}
