package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type RegisterForm struct {
	Name     string `form:"name" validate:"required,min=2,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type ProfileForm struct {
	Name      string `form:"name" validate:"required,min=2,max=100"`
	Address   string `form:"address" validate:"max=500"`
	Phone     string `form:"phone" validate:"omitempty,max=20"`
	BirthDate string `form:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

type ProductForm struct {
	Name          string `form:"name" validate:"required,max=200"`
	Description   string `form:"description"`
	Price         string `form:"price" validate:"required,numeric"`
	StockQuantity string `form:"stock_quantity" validate:"required,number"`
	ImageURL      string `form:"image_url" validate:"omitempty,url"`
	CategoryID    string `form:"category_id" validate:"omitempty,number"`
}

type CategoryForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description"`
}

type CartAddForm struct {
	Quantity int `form:"quantity" validate:"required,gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeForm trims every posted value except the password, decodes the
// form into dst and returns the trimmed values for redisplay.
func (h *Handler) decodeForm(r *http.Request, dst any) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(r.PostForm))
	for name, raw := range r.PostForm {
		if name == "password" {
			continue
		}
		for i := range raw {
			raw[i] = strings.TrimSpace(raw[i])
		}
		if len(raw) > 0 {
			values[name] = raw[0]
		}
	}

	if err := h.forms.Decode(dst, r.PostForm); err != nil {
		return values, err
	}
	return values, nil
}

// validateForm returns per-field messages, or nil when the form is valid.
func (h *Handler) validateForm(form interface{}) (map[string]string, error) {
	err := h.validate.Struct(form)
	if err == nil {
		return nil, nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return formatValidationErrors(validationErrors), nil
	}
	return nil, err
}
