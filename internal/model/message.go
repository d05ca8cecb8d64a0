package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// Message is one chat record. Content is kept raw; it may be a JSON document
// that the content parser turns into a tagged variant.
type Message struct {
	SessionID      string `json:"session_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	MessageID      string `json:"message_id"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
}
