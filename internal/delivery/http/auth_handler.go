package http

import (
	"net/http"

	"comictalk/internal/entity"
	"comictalk/internal/usecase"
)

type AuthHandler struct {
	authUc usecase.AuthUsecase
	userUc usecase.UserUsecase
}

func NewAuthHandler(authUc usecase.AuthUsecase, userUc usecase.UserUsecase) *AuthHandler {
	return &AuthHandler{
		authUc: authUc,
		userUc: userUc,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	authResponse, err := h.authUc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, "registration successful", authResponse)
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	authResponse, err := h.authUc.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "login successful", authResponse)
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	user, err := h.userUc.Get(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "success", user)
}
