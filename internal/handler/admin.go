package handler

import (
	"net/http"

	"github.com/leca/photo-editor/internal/api"
)

type grantRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=3650"`
}

// GrantPremium handles POST /v1/admin/users/{user_id}/premium. Without a
// body the configured default duration is granted.
func (h *Handler) GrantPremium(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())

	var req grantRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Days == 0 {
		req.Days = h.Config.PremiumDays
	}

	expiry, err := h.Editor.GrantPremium(r.Context(), userID, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(map[string]interface{}{
		"user_id":        userID,
		"days":           req.Days,
		"premium_expiry": expiry,
	}))
}

// GetStats handles GET /v1/admin/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Editor.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(st))
}
