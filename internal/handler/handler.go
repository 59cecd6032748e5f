package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
	"github.com/leca/photo-editor/internal/aitext"
	"github.com/leca/photo-editor/internal/api"
	"github.com/leca/photo-editor/internal/config"
	"github.com/leca/photo-editor/internal/editor"
	"github.com/leca/photo-editor/internal/imagecache"
	"github.com/leca/photo-editor/internal/imageproc"
	"github.com/leca/photo-editor/internal/quota"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Editor *editor.Service
	Config *config.Config

	validate *validator.Validate
}

// New creates a Handler.
func New(svc *editor.Service, cfg *config.Config) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{Editor: svc, Config: cfg, validate: v}
}

// decodeJSON reads an optional JSON body into dst and validates it. An empty
// body leaves dst untouched. It writes the error response itself and
// reports whether the handler may continue.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			api.BadRequest(w, "invalid JSON body: "+err.Error())
			return false
		}
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			api.BadRequest(w, err.Error())
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields["/"+fe.Field()] = describeFieldError(fe)
		}
		api.ValidationFailed(w, fields)
		return false
	}
	return true
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// writeError maps service errors to responses.
func writeError(w http.ResponseWriter, err error) {
	var statusErr *aitext.StatusError
	switch {
	case errors.Is(err, editor.ErrNoPhoto):
		api.Conflict(w, "no photo uploaded; upload a photo first")
	case errors.Is(err, editor.ErrTooLarge), errors.Is(err, editor.ErrTooManyPixels),
		errors.Is(err, imagecache.ErrTooLarge):
		api.TooLarge(w, err.Error())
	case errors.Is(err, editor.ErrUnsupportedFormat):
		api.UnsupportedMediaType(w, "unsupported image format")
	case errors.Is(err, editor.ErrAIUnavailable):
		api.ServiceUnavailable(w, "AI features are not configured")
	case errors.Is(err, imageproc.ErrDecode):
		api.UnprocessableEntity(w, "photo could not be decoded")
	case errors.Is(err, imageproc.ErrUnknownAction):
		api.NotFound(w, "unknown action")
	case errors.Is(err, aitext.ErrUnknownKind):
		api.NotFound(w, "unknown AI kind")
	case errors.Is(err, quota.ErrQuotaExceeded):
		api.TooManyRequests(w, "daily edit limit reached")
	case errors.Is(err, quota.ErrInvalidDays):
		api.BadRequest(w, err.Error())
	case errors.As(err, &statusErr), errors.Is(err, aitext.ErrEmptyResponse):
		slog.Warn("AI request failed", "error", err)
		api.ServiceUnavailable(w, "AI request failed")
	default:
		slog.Error("request failed", "error", err)
		api.InternalError(w)
	}
}
