package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leca/photo-editor/internal/aitext"
	"github.com/leca/photo-editor/internal/api"
	"github.com/leca/photo-editor/internal/model"
)

type registerRequest struct {
	Username string `json:"username" validate:"max=64"`
	FullName string `json:"full_name" validate:"max=128"`
}

// RegisterUser handles PUT /v1/users/{user_id} -- creates the quota record
// if it does not exist yet.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())

	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	u, err := h.Editor.Register(r.Context(), userID, model.Profile{Username: req.Username, FullName: req.FullName})
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(u))
}

// UploadPhoto handles PUT /v1/users/{user_id}/photo -- raw image body or a
// multipart form with a "file" field.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())
	limit := h.Config.MaxUploadBytes

	// Leave room for multipart framing; the service enforces the exact size.
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	var reader io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			if isTooLarge(err) {
				api.TooLarge(w, "photo too large")
				return
			}
			api.BadRequest(w, "invalid multipart form: "+err.Error())
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			api.BadRequest(w, "missing required field: file")
			return
		}
		defer file.Close()
		reader = file
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		if isTooLarge(err) {
			api.TooLarge(w, "photo too large")
			return
		}
		api.BadRequest(w, "failed to read body: "+err.Error())
		return
	}
	if len(data) == 0 {
		api.BadRequest(w, "empty body")
		return
	}

	if err := h.Editor.Upload(r.Context(), userID, data); err != nil {
		writeError(w, err)
		return
	}

	st, err := h.Editor.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(map[string]interface{}{
		"size_bytes": len(data),
		"remaining":  st.Remaining,
	}))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// EditPhoto handles POST /v1/users/{user_id}/edits/{action} -- returns the
// edited photo as image/jpeg.
func (h *Handler) EditPhoto(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())
	action := chi.URLParam(r, "action")

	res, err := h.Editor.Edit(r.Context(), userID, action)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Image)))
	w.Header().Set("X-Edit-Action", res.Action)
	w.Header().Set("X-Remaining-Edits", strconv.Itoa(res.Remaining))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Image); err != nil {
		slog.Warn("EditPhoto: failed to write response", "error", err)
	}
}

// DescribePhoto handles POST /v1/users/{user_id}/ai/{kind}.
func (h *Handler) DescribePhoto(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())

	kind, err := aitext.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	text, err := h.Editor.Describe(r.Context(), userID, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(map[string]string{
		"kind": string(kind),
		"text": text,
	}))
}

// GetQuota handles GET /v1/users/{user_id}/quota.
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	st, err := h.Editor.Status(r.Context(), api.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(st))
}

// ListEdits handles GET /v1/users/{user_id}/edits.
func (h *Handler) ListEdits(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			api.BadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	edits, err := h.Editor.History(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if edits == nil {
		edits = []*model.EditEvent{}
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(edits))
}
