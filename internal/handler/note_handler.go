package handler

import (
	"encoding/json"
	"net/http"

	"padsync-server/internal/domain"
	"padsync-server/internal/middleware"
	"padsync-server/internal/service"
	"padsync-server/pkg/response"

	"github.com/gorilla/mux"
)

type NoteHandler struct {
	sessions *service.SessionService
	access   *service.AccessService
}

func NewNoteHandler(sessions *service.SessionService, access *service.AccessService) *NoteHandler {
	return &NoteHandler{
		sessions: sessions,
		access:   access,
	}
}

// Create hands out a fresh identifier for the client to redirect to. Nothing
// is stored until the redirected open arrives.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessions.Open(r.Context(), "", false)
	if err != nil {
		response.InternalError(w, "failed to create note")
		return
	}

	response.Created(w, result)
}

// Open loads the note, creating it empty if the identifier is new. Protected
// notes answer locked unless a valid unlock token accompanies the request.
func (h *NoteHandler) Open(w http.ResponseWriter, r *http.Request) {
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

	response.Success(w, result)
}

// Save persists content directly, for stateless clients that debounce on
// their own. Websocket sessions use the server-side debounce instead.
func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	var req domain.SaveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
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

	if err := h.sessions.SaveNow(r.Context(), noteID, req.Content); err != nil {
		response.InternalError(w, "failed to save note")
		return
	}

	response.Success(w, map[string]string{"status": string(service.StateSaved)})
}
