package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// addDefaultData fills the fields every page needs from the request.
func (h *Handler) addDefaultData(td *TemplateData, r *http.Request) *TemplateData {
	if td == nil {
		td = &TemplateData{}
	}
	td.CurrentYear = time.Now().Year()
	td.StripePublishableKey = h.publishableKey
	td.IsProduction = h.production
	if id, ok := h.sessions.Identity(r.Context()); ok {
		td.User = &id
	}
	if td.Flash == "" {
		td.Flash = h.sessions.PopFlash(r.Context())
	}
	return td
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *TemplateData) {
	ts, ok := h.templates[page]
	if !ok {
		h.serverError(w, r, fmt.Errorf("the template %s does not exist", page))
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", h.addDefaultData(data, r)); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to write page")
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Internal server error")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// clientError renders the error page with a short message for the user.
func (h *Handler) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error.page.tmpl", &TemplateData{
		Title:      http.StatusText(status),
		FormErrors: map[string]string{"form": message},
	})
}

func parseInt64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return id, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s parameter %q: %w", name, raw, err)
	}
	return id, nil
}

// formatValidationErrors maps each failed form field to a message,
// keyed by the field's form name.
func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "Wajib diisi"
		case "email":
			msg = "Format email tidak valid"
		case "min":
			msg = fmt.Sprintf("Minimal %s karakter", fe.Param())
		case "max":
			msg = fmt.Sprintf("Maksimal %s karakter", fe.Param())
		case "numeric", "number":
			msg = "Harus berupa angka"
		case "url":
			msg = "URL tidak valid"
		case "datetime":
			msg = "Tanggal tidak valid"
		default:
			msg = fmt.Sprintf("Tidak valid (%s)", fe.Tag())
		}
		out[fe.Field()] = msg
	}
	return out
}
