package handler

import (
	"net/http"

	"github.com/leca/photo-editor/internal/api"
	"github.com/leca/photo-editor/internal/imageproc"
)

// ListActions handles GET /v1/actions, optionally filtered by ?family=.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	family := r.URL.Query().Get("family")
	switch imageproc.Family(family) {
	case "":
		api.WriteJSON(w, http.StatusOK, api.SuccessResponse(h.Editor.Catalog()))
	case imageproc.FamilyFilter, imageproc.FamilyCrop, imageproc.FamilyEnhance:
		api.WriteJSON(w, http.StatusOK, api.SuccessResponse(imageproc.Actions(imageproc.Family(family))))
	default:
		api.BadRequest(w, "family must be one of filter, crop, enhance")
	}
}
