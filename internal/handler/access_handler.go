package handler

import (
	"encoding/json"
	"net/http"

	"padsync-server/internal/domain"
	"padsync-server/internal/middleware"
	"padsync-server/internal/service"
	"padsync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type AccessHandler struct {
	sessions *service.SessionService
	access   *service.AccessService
	validate *validator.Validate
}

func NewAccessHandler(sessions *service.SessionService, access *service.AccessService) *AccessHandler {
	return &AccessHandler{
		sessions: sessions,
		access:   access,
		validate: validator.New(),
	}
}

// SetPassword protects the note. Changing the password of an already
// protected note requires the note to be unlocked first — the URL plus the
// current password is the entire capability model.
func (h *AccessHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	var req domain.SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	unlocked := h.access.Unlocked(middleware.UnlockToken(r), noteID)

	result, err := h.sessions.Open(r.Context(), noteID, unlocked)
	if err != nil {
		if service.IsValidation(err) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "failed to open note")
		return
	}
	if result.Locked {
		response.Locked(w, result)
		return
	}

	if err := h.access.SetPassword(r.Context(), noteID, req.Password); err != nil {
		if service.IsValidation(err) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "failed to set password")
		return
	}

	response.Success(w, map[string]string{"message": "password set"})
}

// Unlock verifies the supplied password and returns an unlock token on
// success.
func (h *AccessHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	var req domain.UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	unlockToken, err := h.access.Verify(r.Context(), noteID, req.Password)
	if err != nil {
		if err == service.ErrAccessDenied {
			// One denial for every failure mode; existence is not disclosed.
			response.Unauthorized(w, "access denied")
			return
		}
		response.InternalError(w, "failed to verify password")
		return
	}

	response.Success(w, &domain.UnlockResponse{
		NoteID:      noteID,
		UnlockToken: unlockToken,
	})
}

// RemovePassword clears protection. Available to anyone holding the note open
// and unlocked; there is no secondary credential and no recovery path.
func (h *AccessHandler) RemovePassword(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	unlocked := h.access.Unlocked(middleware.UnlockToken(r), noteID)

	result, err := h.sessions.Open(r.Context(), noteID, unlocked)
	if err != nil {
		if service.IsValidation(err) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "failed to open note")
		return
	}
	if result.Locked {
		response.Locked(w, result)
		return
	}

	if err := h.access.RemovePassword(r.Context(), noteID); err != nil {
		response.InternalError(w, "failed to remove password")
		return
	}

	response.Success(w, map[string]string{"message": "password removed"})
}
