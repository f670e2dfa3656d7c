package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// TypeEdit carries the client's current working content into the
	// server-side debounce.
	TypeEdit MessageType = "edit"

	// TypeSaveState streams Idle/Saving/Saved/Failed transitions back to the
	// editing client.
	TypeSaveState MessageType = "save_state"

	// TypeNoteUpdate tells the other clients of a note that new content was
	// persisted. Last write wins; no merge is attempted.
	TypeNoteUpdate MessageType = "note_update"

	// TypeSnapshot asks for an explicit version snapshot of the current
	// content.
	TypeSnapshot        MessageType = "snapshot"
	TypeSnapshotCreated MessageType = "snapshot_created"

	TypeError MessageType = "error"
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type EditPayload struct {
	Content string `json:"content"`
}

type SaveStatePayload struct {
	State   string    `json:"state"`
	SavedAt time.Time `json:"saved_at,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type NoteUpdatePayload struct {
	NoteID    string    `json:"note_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SnapshotCreatedPayload struct {
	NoteID      string    `json:"note_id"`
	Number      int64     `json:"number"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
