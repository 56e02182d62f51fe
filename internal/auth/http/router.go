package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kyodo/backend/internal/auth/service"
	commonhttp "github.com/kyodo/backend/internal/common/http"
	"github.com/kyodo/backend/internal/common/logger"
	userdomain "github.com/kyodo/backend/internal/user/domain"
)

type Service interface {
	Register(ctx context.Context, input service.RegisterInput) (userdomain.ID, error)
	Login(ctx context.Context, input service.LoginInput) (userdomain.User, error)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type registerResponse struct {
	ID userdomain.ID `json:"id"`
}

// Length is not checked at login: an oversized credential simply fails to
// match and gets the same answer as any other mismatch.
type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    userdomain.ID `json:"id"`
	Name  string        `json:"name"`
	Login string        `json:"login"`
}

type Handler struct {
	auth   Service
	errors *commonhttp.ErrorHandler
	log    *logger.Logger
}

func NewHandler(auth Service, log *logger.Logger) *Handler {
	return &Handler{auth: auth, errors: commonhttp.NewErrorHandler(log), log: log}
}

// Routes mounts the credential endpoints, conventionally under /api/auth.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !commonhttp.DecodeAndValidate(w, r, &req) {
		return
	}

	id, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, registerResponse{ID: id})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !commonhttp.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.auth.Login(r.Context(), service.LoginInput{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name, Login: user.Login})
}
