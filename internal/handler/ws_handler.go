package handler

import (
	"context"
	"net/http"

	"padsync-server/internal/middleware"
	"padsync-server/internal/service"
	"padsync-server/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	sessions *service.SessionService
	access   *service.AccessService
	logger   zerolog.Logger
	upgrader ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, sessions *service.SessionService, access *service.AccessService, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:  manager,
		sessions: sessions,
		access:   access,
		logger:   logger,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection turns an HTTP request into a live edit session. The note
// is opened (created if fresh) before the upgrade so lock enforcement happens
// while errors can still be reported over plain HTTP.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	noteID := r.URL.Query().Get("note_id")
	if noteID == "" {
		http.Error(w, "note_id is required", http.StatusBadRequest)
		return
	}

	unlocked := h.access.Unlocked(middleware.UnlockToken(r), noteID)

	result, err := h.sessions.Open(r.Context(), noteID, unlocked)
	if err != nil {
		if service.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to open note", http.StatusInternalServerError)
		return
	}
	if result.Locked {
		http.Error(w, "note is locked", http.StatusLocked)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()

	var client *websocket.Client
	session := h.sessions.NewSession(noteID, func(change service.StateChange) {
		payload := &websocket.SaveStatePayload{State: string(change.State)}
		if change.State == service.StateSaved {
			payload.SavedAt = change.SavedAt
		}
		if change.Err != nil {
			payload.Error = change.Err.Error()
		}
		client.SendMessage(websocket.TypeSaveState, payload)

		// Other tabs of the same note learn about the save; last write wins.
		if change.State == service.StateSaved {
			h.manager.BroadcastToNote(noteID, clientID, websocket.TypeNoteUpdate, &websocket.NoteUpdatePayload{
				NoteID:    noteID,
				Content:   change.Content,
				UpdatedAt: change.SavedAt,
			})
		}
	})
	session.SetBaseline(result.Content)

	client = websocket.NewClient(clientID, noteID, conn, h.manager, session, h.logger)

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler routes messages from live clients into the engine.
type WebSocketMessageHandler struct {
	versions *service.VersionService
}

func NewWebSocketMessageHandler(versions *service.VersionService) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{
		versions: versions,
	}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeEdit:
		return h.handleEdit(client, msg)

	case websocket.TypeSnapshot:
		return h.handleSnapshot(client)

	case websocket.TypePing:
		client.SendMessage(websocket.TypePong, nil)
		return nil

	default:
		client.SendMessage(websocket.TypeError, &websocket.ErrorPayload{Error: "unknown message type"})
		return nil
	}
}

func (h *WebSocketMessageHandler) handleEdit(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.EditPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}

	client.Session.RecordEdit(payload.Content)
	return nil
}

func (h *WebSocketMessageHandler) handleSnapshot(client *websocket.Client) error {
	// Snapshot what the user sees: flush the working copy first so the
	// version matches the live note.
	client.Session.Flush()

	version, err := h.versions.Snapshot(context.Background(), client.NoteID, client.Session.Content())
	if err != nil {
		return err
	}

	client.SendMessage(websocket.TypeSnapshotCreated, &websocket.SnapshotCreatedPayload{
		NoteID:      version.NoteID,
		Number:      version.Number,
		ContentHash: version.ContentHash,
		CreatedAt:   version.CreatedAt,
	})

	return nil
}
