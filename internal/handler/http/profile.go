package http

import (
	"net/http"
	"time"

	"github.com/NGxID18/CureCart/internal/user"
)

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Identity(r.Context())

	u, err := h.users.GetByID(r.Context(), id.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "profile.page.tmpl", &TemplateData{
		Profile: u,
		Success: r.URL.Query().Get("success") == "true",
	})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Identity(r.Context())

	var form ProfileForm
	if _, err := h.decodeForm(r, &form); err != nil {
		h.clientError(w, r, http.StatusBadRequest, "Form tidak valid")
		return
	}

	fieldErrors, err := h.validateForm(form)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	profile := user.Profile{Name: form.Name, Address: form.Address, Phone: form.Phone}
	if fieldErrors == nil && form.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", form.BirthDate)
		if err != nil || birth.After(time.Now()) {
			fieldErrors = map[string]string{"birth_date": "Tanggal tidak valid"}
		} else {
			profile.BirthDate = &birth
		}
	}

	if fieldErrors != nil {
		current, err := h.users.GetByID(r.Context(), id.ID)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		current.Name, current.Address, current.Phone = form.Name, form.Address, form.Phone
		h.render(w, r, http.StatusUnprocessableEntity, "profile.page.tmpl", &TemplateData{Profile: current, FormErrors: fieldErrors})
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), id.ID, profile)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sessions.UpdateName(r.Context(), updated.Name)

	http.Redirect(w, r, "/profile?success=true", http.StatusSeeOther)
}
