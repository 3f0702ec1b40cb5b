package handlers

import (
	"net/http"

	"server/internal/sqlinline"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary)
	var totalUsers, vipUsers, trialsConsumed, allowed24, denied24, spent24 int64
	if err := row.Scan(&totalUsers, &vipUsers, &trialsConsumed, &allowed24, &denied24, &spent24); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_users":            totalUsers,
		"vip_users":              vipUsers,
		"trials_consumed":        trialsConsumed,
		"allowed_last_24h":       allowed24,
		"denied_last_24h":        denied24,
		"credits_spent_last_24h": spent24,
	})
}
