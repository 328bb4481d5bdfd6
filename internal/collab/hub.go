package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/pixeldraft/internal/typeid"
)

// Scene is the authoritative state the hub serves. Implementations
// serialize their own access.
type Scene interface {
	// Sync returns the encoded scene and the sequence number it reflects.
	Sync() (json.RawMessage, int64, error)
	// Apply performs op and returns its sequence number and an optional
	// result (the affected shape record).
	Apply(op Operation) (int64, json.RawMessage, error)
}

// Hub fans scene changes and presence out to every connected viewer.
// There is one shared canvas, so one room.
type Hub struct {
	scene Scene

	mu       sync.RWMutex
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	now        func() time.Time
}

func NewHub(scene Scene) *Hub {
	return &Hub{
		scene:      scene,
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run processes joins and leaves until ctx is cancelled, then closes every
// client's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				c.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, UserID: client.UserID})
	client.Send(&Message{Type: TypeWelcome, ClientID: client.ClientID, Payload: welcome})

	if msg := h.syncMessage(); msg != nil {
		client.Send(msg)
	}

	// Send current presence state to new client
	stateMsg := h.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Payload:  joinPayload,
	}
	h.broadcast(joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	client.close()
	h.mu.Unlock()

	h.presence.Remove(client.ClientID)

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Payload:  leavePayload,
	}
	h.broadcast(leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.sendError("unknown message type: " + msg.Type)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	stored := h.presence.Update(sender, presence)
	h.broadcast(presenceMessage(sender.ClientID, stored), sender.ClientID)
}

func presenceMessage(clientID string, p PresencePayload) *Message {
	payload, _ := json.Marshal(p)
	return &Message{
		Type:     TypePresenceUpdate,
		ClientID: clientID,
		UserID:   p.UserID,
		Payload:  payload,
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		sender.sendError("invalid operation payload")
		return
	}
	op := submit.Operation
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}

	seq, result, err := h.scene.Apply(op)
	if err != nil {
		slog.Info("operation rejected", "op", op.ID, "type", op.Type, "error", err)
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: h.now().UnixMilli(),
		Result:          result,
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: seq, Payload: ack})

	h.publish(op, sender.UserID, seq, result, sender.ClientID)
}

// Publish tells every client about an operation applied outside the
// websocket, e.g. through the HTTP API.
func (h *Hub) Publish(op Operation, userID string, seq int64, result json.RawMessage) {
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	h.publish(op, userID, seq, result, "")
}

func (h *Hub) publish(op Operation, userID string, seq int64, result json.RawMessage, exclude string) {
	if op.Timestamp == 0 {
		op.Timestamp = h.now().UnixMilli()
	}
	var cleared []string
	if op.Type == OpShapeDelete && op.ShapeID != nil {
		cleared = h.presence.ClearSelection(*op.ShapeID)
	}
	payload, err := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    userID,
		ServerSeq: seq,
		Result:    result,
	})
	if err != nil {
		slog.Error("marshal broadcast", "error", err)
		return
	}
	h.broadcast(&Message{Type: TypeOpBroadcast, UserID: userID, Seq: seq, Payload: payload}, exclude)

	for _, clientID := range cleared {
		if p, ok := h.presence.Get(clientID); ok {
			h.broadcast(presenceMessage(clientID, p), "")
		}
	}
}

// SyncAll resends the full scene to every client. Used after the scene is
// replaced wholesale.
func (h *Hub) SyncAll() {
	if msg := h.syncMessage(); msg != nil {
		h.broadcast(msg, "")
	}
}

func (h *Hub) syncMessage() *Message {
	scene, seq, err := h.scene.Sync()
	if err != nil {
		slog.Error("encode scene for sync", "error", err)
		return nil
	}
	payload, err := json.Marshal(SceneSyncPayload{Scene: scene, ServerSeq: seq})
	if err != nil {
		slog.Error("marshal scene sync", "error", err)
		return nil
	}
	return &Message{Type: TypeSceneSync, Seq: seq, Payload: payload}
}

func (h *Hub) broadcast(msg *Message, excludeClientID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
