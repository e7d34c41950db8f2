package handlers

import (
	"net/http"

	"github.com/gartstein/companyemployees/internal/company/controller"
	"github.com/gartstein/companyemployees/internal/company/models"
	"go.uber.org/zap"
)

// AuthenticationHandler serves /api/authentication.
type AuthenticationHandler struct {
	errorWriter
	services *controller.ServiceManager
}

func NewAuthenticationHandler(services *controller.ServiceManager, logger *zap.Logger) *AuthenticationHandler {
	return &AuthenticationHandler{
		errorWriter: errorWriter{logger: logger.Named("authentication_handler")},
		services:    services,
	}
}

func (h *AuthenticationHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	input, err := decodeBody[models.UserForRegistration](r, "UserForRegistrationDto")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.services.AuthenticationService().RegisterUser(r.Context(), *input); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *AuthenticationHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	input, err := decodeBody[models.UserForAuthentication](r, "UserForAuthenticationDto")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	service := h.services.AuthenticationService()
	user, err := service.ValidateUser(r.Context(), *input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := service.CreateToken(user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}
