package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/NGxID18/CureCart/internal/session"
	"github.com/NGxID18/CureCart/internal/user"
)

func (h *Handler) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.page.tmpl", nil)
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.page.tmpl", nil)
}

func identityOf(u *user.User) session.Identity {
	return session.Identity{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form RegisterForm
	values, err := h.decodeForm(r, &form)
	if err != nil {
		h.clientError(w, r, http.StatusBadRequest, "Form tidak valid")
		return
	}

	fieldErrors, err := h.validateForm(form)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if fieldErrors != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "register.page.tmpl", &TemplateData{Form: values, FormErrors: fieldErrors})
		return
	}

	created, err := h.users.Register(r.Context(), user.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			h.render(w, r, http.StatusConflict, "register.page.tmpl", &TemplateData{
				Form:       values,
				FormErrors: map[string]string{"email": "Email sudah terpakai"},
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.sessions.Login(r.Context(), identityOf(created)); err != nil {
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	values, err := h.decodeForm(r, &form)
	if err != nil {
		h.clientError(w, r, http.StatusBadRequest, "Form tidak valid")
		return
	}

	fieldErrors, err := h.validateForm(form)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if fieldErrors != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "login.page.tmpl", &TemplateData{Form: values, FormErrors: fieldErrors})
		return
	}

	u, err := h.users.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			log.Warn().Str("ip", clientIP(r)).Msg("Failed login attempt")
			h.render(w, r, http.StatusUnauthorized, "login.page.tmpl", &TemplateData{
				Form:       values,
				FormErrors: map[string]string{"form": "Email atau password salah"},
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.sessions.Login(r.Context(), identityOf(u)); err != nil {
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to destroy session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
