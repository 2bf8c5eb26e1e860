package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diacare/diacare-api/internal/middleware"
	"github.com/diacare/diacare-api/internal/model"
	"github.com/diacare/diacare-api/internal/service"
)

// AuthHandler handles HTTP requests for signup and login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleSignup handles POST /signup requests.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Signup(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialsRequired):
			writeJSON(w, http.StatusBadRequest, messageResponse("Email and password are required"))
		case errors.Is(err, service.ErrUserExists):
			writeJSON(w, http.StatusBadRequest, messageResponse("User already exists"))
		case errors.Is(err, service.ErrPasswordTooLong):
			writeJSON(w, http.StatusBadRequest, messageResponse("Password is too long"))
		default:
			slog.Error("signup error", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Error: "+err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.MessageResponse{Message: "User created successfully"})
}

// HandleLogin handles POST /login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCredentialsRequired):
			writeJSON(w, http.StatusBadRequest, messageResponse("Email and password are required"))
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, messageResponse("Invalid credentials"))
		default:
			slog.Error("login error", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Error: "+err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("unauthorized"))
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse("User not found"))
			return
		}
		slog.Error("profile error", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Error: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileResponse{User: profile})
}

// decode writes the error response itself and reports whether to continue.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := decodeJSON(w, r, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, messageResponse("request body too large"))
	case errors.Is(err, model.ErrNotInteger):
		writeJSON(w, http.StatusBadRequest, messageResponse("age must be an integer"))
	default:
		writeJSON(w, http.StatusBadRequest, messageResponse("invalid request body"))
	}
	return false
}
