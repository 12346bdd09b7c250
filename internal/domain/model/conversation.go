package model

import (
	"strings"
	"time"

	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

// ConversationStatus is open until an admin closes the thread.
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// Valid reports whether s is a known status.
func (s ConversationStatus) Valid() bool {
	return s == ConversationOpen || s == ConversationClosed
}

// Conversation is a support thread, optionally tied to an order.
type Conversation struct {
	PublicID      string             `json:"publicId"`
	UserEmail     string             `json:"userEmail"`
	Subject       string             `json:"subject"`
	OrderID       string             `json:"orderId,omitempty"`
	Status        ConversationStatus `json:"status"`
	LastMessageAt time.Time          `json:"lastMessageAt,omitzero"`
	UnreadCount   int                `json:"unreadCount"`
}

// SenderRole tells who wrote a message.
type SenderRole string

const (
	SenderUser  SenderRole = "user"
	SenderAdmin SenderRole = "admin"
)

// Message is one entry of a conversation.
type Message struct {
	PublicID    string     `json:"publicId"`
	SenderRole  SenderRole `json:"senderRole"`
	SenderEmail string     `json:"senderEmail"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt,omitzero"`
}

// OpenConversationRequest starts a new conversation.
type OpenConversationRequest struct {
	Subject string `json:"subject"`
	OrderID string `json:"orderId,omitempty"`
}

// Normalize trims the fields in place and validates the subject.
func (r *OpenConversationRequest) Normalize() error {
	r.Subject = strings.TrimSpace(r.Subject)
	r.OrderID = strings.TrimSpace(r.OrderID)
	if r.Subject == "" {
		return apperrors.ValidationField("subject", "subject is required")
	}
	return nil
}

// SendMessageRequest posts a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// NewSendMessageRequest trims content and rejects blank messages.
func NewSendMessageRequest(content string) (SendMessageRequest, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return SendMessageRequest{}, apperrors.ValidationField("content", "message is empty")
	}
	return SendMessageRequest{Content: content}, nil
}

// ConversationQuery filters the admin conversation list.
type ConversationQuery struct {
	Status    ConversationStatus
	UserEmail string
}

// Params returns the query parameters; unset fields are omitted.
func (q ConversationQuery) Params() map[string]any {
	p := map[string]any{}
	if q.Status != "" {
		p["status"] = string(q.Status)
	}
	if s := strings.TrimSpace(q.UserEmail); s != "" {
		p["userEmail"] = s
	}
	return p
}
