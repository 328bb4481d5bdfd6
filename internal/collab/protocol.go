package collab

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   *int       `json:"selection,omitempty"` // shape id
	UserID      string     `json:"userId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is in the logical frame.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceStatePayload maps client id to presence.
type PresenceStatePayload struct {
	Presences map[string]PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

// SceneSyncPayload carries the whole scene as persisted records.
type SceneSyncPayload struct {
	Scene     json.RawMessage `json:"scene"`
	ServerSeq int64           `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync
	TypeSceneSync = "scene.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types
const (
	OpShapeCreate    = "shape.create"
	OpShapeDelete    = "shape.delete"
	OpShapeTransform = "shape.transform"
	OpShapeBake      = "shape.bake"
	OpShapeStyle     = "shape.style"
	OpSceneReplace   = "scene.replace"
)

// Operation is a scene mutation. Payload fields are decoded by the scene
// that applies the operation.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ShapeID   *int   `json:"shapeId,omitempty"`

	// shape.create: a scene record without id
	Shape json.RawMessage `json:"shape,omitempty"`

	// shape.transform: {op, args}
	Transform json.RawMessage `json:"transform,omitempty"`

	// shape.style: partial style
	Style json.RawMessage `json:"style,omitempty"`

	// scene.replace: a full scene array
	Scene json.RawMessage `json:"scene,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string          `json:"operationId"`
	ServerSeq       int64           `json:"serverSeq"`
	ServerTimestamp int64           `json:"serverTimestamp"`
	Result          json.RawMessage `json:"result,omitempty"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation       `json:"operation"`
	UserID    string          `json:"userId"`
	ServerSeq int64           `json:"serverSeq"`
	Result    json.RawMessage `json:"result,omitempty"`
}
