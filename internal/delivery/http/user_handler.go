package http

import (
	"net/http"

	"comictalk/internal/entity"
)

// Method Get /api/users/{userId}
func (h *HttpHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	user, err := h.userUc.Get(r.Context(), userId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "success", h.profile(user))
}

// Method Get /api/profile
func (h *HttpHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	user, err := h.userUc.Get(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "success", h.profile(user))
}

// Method Put /api/profile
func (h *HttpHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req entity.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userUc.UpdateProfile(r.Context(), claims.UserId, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "profile updated", h.profile(user))
}

// Online status comes from the presence directory, not lastSeenAt.
func (h *HttpHandler) profile(user entity.User) entity.ProfileResponse {
	return entity.ProfileResponse{
		User:     user,
		IsOnline: h.hub.Presence().IsOnline(user.Id),
	}
}
