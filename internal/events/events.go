package events

import "encoding/json"

// Event names exchanged over a connection.
const (
	Register          = "register"
	RegisterResponse  = "register-response"
	SendMessage       = "send-message"
	ReceiveMessage    = "receive-message"
	SendMessageFailed = "send-message-failed"
	Notification      = "notification"
	Error             = "error"
)

// Envelope wraps every frame on the wire.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "send-message"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// ──────────────────────────── client → server ─────────────────────────────

// RegisterRequest is the body for "register".
type RegisterRequest struct {
	Username string `json:"username"`
}

// SendMessageRequest is the body for "send-message".
type SendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// ──────────────────────────── server → client ─────────────────────────────

type RegisterResponseBody struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

type ReceiveMessageBody struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// SendMessageFailedBody is only emitted when delivery-failure acks are enabled.
type SendMessageFailedBody struct {
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type NotificationBody struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Error string `json:"error"`
}
