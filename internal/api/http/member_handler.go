package http

import (
	"encoding/json"
	"net/http"

	"equiprent/internal/service"
)

// MemberHandler serves the authenticated member's own profile.
type MemberHandler struct {
	members service.MemberService
}

func NewMemberHandler(members service.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	member, err := h.members.GetMember(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.Name == "" && req.Email == "" {
		badRequest(w, "nothing to update")
		return
	}

	member, err := h.members.UpdateProfile(r.Context(), memberID, req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *MemberHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	if err := h.members.ChangePassword(r.Context(), memberID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type upgradeTierRequest struct {
	Tier string `json:"tier"`
}

func (h *MemberHandler) UpgradeTier(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req upgradeTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	member, err := h.members.UpgradeTier(r.Context(), memberID, req.Tier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

func (h *MemberHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	member, err := h.members.DeactivateMember(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

func (h *MemberHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	member, err := h.members.ReactivateMember(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}
