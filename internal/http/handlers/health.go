package handlers

import "net/http"

// Health is the liveness probe. It does not touch the database: a
// degraded pool should not take the process out of rotation.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "service": "credits-gateway"})
}
