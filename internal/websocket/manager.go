package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager tracks clients grouped into per-note rooms. Everyone holding a
// note's URL may join its room; the room is how one tab learns another tab
// saved.
type Manager struct {
	clients      map[string]*Client
	noteIndex    map[string]map[string]bool
	clientsMutex sync.RWMutex

	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage

	maxConnPerNote int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration

	messageHandler MessageHandler
	logger         zerolog.Logger
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

func NewManager(maxConnPerNote int, maxMessageSize int64, writeWait, pongWait, pingPeriod time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		noteIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		maxConnPerNote: maxConnPerNote,
		maxMessageSize: maxMessageSize,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     pingPeriod,
		logger:         logger,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.noteIndex[client.NoteID] == nil {
		m.noteIndex[client.NoteID] = make(map[string]bool)
	}

	if len(m.noteIndex[client.NoteID]) >= m.maxConnPerNote {
		m.logger.Warn().Str("note", client.NoteID).Msg("max connections reached for note")
		client.Session.Close()
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.noteIndex[client.NoteID][client.ID] = true

	m.logger.Debug().Str("client", client.ID).Str("note", client.NoteID).Msg("client registered")
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.noteIndex[client.NoteID], client.ID)

		if len(m.noteIndex[client.NoteID]) == 0 {
			delete(m.noteIndex, client.NoteID)
		}

		// Teardown: pending debounced saves die with the session.
		client.Session.Close()
		close(client.Send)

		m.logger.Debug().Str("client", client.ID).Msg("client unregistered")
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	if m.messageHandler == nil {
		return
	}

	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Warn().Err(err).Str("client", clientMsg.Client.ID).Msg("malformed message")
		return
	}

	if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
		m.logger.Warn().Err(err).Str("client", clientMsg.Client.ID).Msg("message handling failed")
		clientMsg.Client.SendMessage(TypeError, &ErrorPayload{Error: err.Error()})
	}
}

// BroadcastToNote delivers a message to every client of the note except the
// sender.
func (m *Manager) BroadcastToNote(noteID, excludeClientID string, msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	for clientID := range m.noteIndex[noteID] {
		if clientID == excludeClientID {
			continue
		}
		if client, ok := m.clients[clientID]; ok {
			select {
			case client.Send <- data:
			default:
				// Slow consumer; drop rather than block the broadcaster.
			}
		}
	}
}

// SendMessage marshals and queues a message for one client.
func (c *Client) SendMessage(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case c.Send <- data:
	default:
	}
}
