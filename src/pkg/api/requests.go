package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/model"
)

var validate = validator.New()

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate checks the request against its struct tags.
func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// MindmapRequest is the body of POST and PUT on mind maps. Absent fields are
// left unchanged on update.
type MindmapRequest struct {
	Title       *string             `json:"title" validate:"omitempty,max=200"`
	Nodes       *[]model.Node       `json:"nodes" validate:"omitempty,max=10000"`
	Connections *[]model.Connection `json:"connections" validate:"omitempty,max=20000"`
	ViewState   *model.ViewState    `json:"viewState"`
}

func (r *MindmapRequest) Validate() error {
	return validate.Struct(r)
}

// Info converts the request into the data layer's info/filter pair.
func (r *MindmapRequest) Info() (model.MindmapInfo, model.MindmapFilter) {
	var info model.MindmapInfo
	var filter model.MindmapFilter
	if r.Title != nil {
		info.Title = *r.Title
		filter.Title = true
	}
	if r.Nodes != nil {
		info.Nodes = *r.Nodes
		filter.Nodes = true
	}
	if r.Connections != nil {
		info.Connections = *r.Connections
		filter.Connections = true
	}
	if r.ViewState != nil {
		info.ViewState = r.ViewState
		filter.ViewState = true
	}
	return info, filter
}

// validationMessage turns validator errors into a client-facing sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return "Please provide a valid email"
	case fe.Field() == "Password" && fe.Tag() == "min":
		return fmt.Sprintf("Password must be at least %d characters", data.MinPasswordLength)
	case fe.Tag() == "required":
		return "Please provide email and password"
	default:
		return fmt.Sprintf("Invalid %s", strings.ToLower(fe.Field()))
	}
}
