package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"padsync-server/internal/domain"
	"padsync-server/internal/middleware"
	"padsync-server/internal/service"
	"padsync-server/pkg/response"

	"github.com/gorilla/mux"
)

type VersionHandler struct {
	sessions *service.SessionService
	versions *service.VersionService
	access   *service.AccessService
}

func NewVersionHandler(sessions *service.SessionService, versions *service.VersionService, access *service.AccessService) *VersionHandler {
	return &VersionHandler{
		sessions: sessions,
		versions: versions,
		access:   access,
	}
}

// gate opens the note and enforces the lock. It returns false after writing
// the response when the caller may not proceed.
func (h *VersionHandler) gate(w http.ResponseWriter, r *http.Request, noteID string) bool {
	unlocked := h.access.Unlocked(middleware.UnlockToken(r), noteID)

	result, err := h.sessions.Open(r.Context(), noteID, unlocked)
	if err != nil {
		if service.IsValidation(err) {
			response.BadRequest(w, err.Error())
			return false
		}
		response.InternalError(w, "failed to open note")
		return false
	}
	if result.Locked {
		response.Locked(w, result)
		return false
	}

	return true
}

// Snapshot creates a new version of the supplied content. Failures surface to
// the caller; re-invoking is the retry path.
func (h *VersionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	var req domain.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload")
		return
	}

	if !h.gate(w, r, noteID) {
		return
	}

	version, err := h.versions.Snapshot(r.Context(), noteID, req.Content)
	if err != nil {
		response.InternalError(w, "failed to create version")
		return
	}

	response.Created(w, &domain.SnapshotResponse{
		NoteID:      version.NoteID,
		Number:      version.Number,
		ContentHash: version.ContentHash,
		CreatedAt:   version.CreatedAt,
	})
}

// List returns the note's versions, newest first, capped.
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	if !h.gate(w, r, noteID) {
		return
	}

	versions, err := h.versions.List(r.Context(), noteID)
	if err != nil {
		response.InternalError(w, "failed to list versions")
		return
	}

	out := make([]*domain.VersionResponse, len(versions))
	for i, v := range versions {
		out[i] = &domain.VersionResponse{
			Number:      v.Number,
			Content:     v.Content,
			ContentHash: v.ContentHash,
			CreatedAt:   v.CreatedAt,
		}
	}

	response.Success(w, out)
}

// Restore returns the immutable content of one version. Whether that content
// becomes the live note is the client's decision via the normal edit path.
func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	noteID := vars["id"]
	if noteID == "" {
		response.BadRequest(w, "note id is required")
		return
	}

	number, err := strconv.ParseInt(vars["number"], 10, 64)
	if err != nil || number < 1 {
		response.BadRequest(w, "invalid version number")
		return
	}

	if !h.gate(w, r, noteID) {
		return
	}

	content, err := h.versions.Restore(r.Context(), noteID, number)
	if err != nil {
		if err == service.ErrVersionNotFound {
			response.NotFound(w, "version not found")
			return
		}
		response.InternalError(w, "failed to restore version")
		return
	}

	response.Success(w, map[string]interface{}{
		"note_id": noteID,
		"number":  number,
		"content": content,
	})
}
