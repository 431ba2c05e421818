// Package model defines data structures for the marketplace platform.
package model

import (
	"time"
)

// PropertySummary is the property a conversation is about.
type PropertySummary struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title"`
	Images []string `json:"images,omitempty"`
}

// UserSummary identifies the other participant in a conversation.
type UserSummary struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"full_name"`
}

// LastMessage is the most recent message in a conversation.
type LastMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary is one row of a user's chat list. Nested records are
// optional; consumers must treat missing fields as empty rather than fail.
type ConversationSummary struct {
	ChatID        string           `json:"chat_id"`
	Property      *PropertySummary `json:"property,omitempty"`
	OtherUser     *UserSummary     `json:"other_user,omitempty"`
	LastMessage   *LastMessage     `json:"last_message,omitempty"`
	LastMessageAt string           `json:"last_message_at,omitempty"`
	UnreadCount   int              `json:"unread_count,omitempty"`
}

// ChatMessage is a single message within a conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Sequence  uint64    `json:"sequence,omitempty"`
}

// CreateChatRequest is the request to open a conversation about a property.
type CreateChatRequest struct {
	Property  PropertySummary `json:"property"`
	OtherUser UserSummary     `json:"other_user"`
}

// ListMessagesResponse pages through a conversation's messages. LastSequence
// feeds the next request's after parameter.
type ListMessagesResponse struct {
	Messages     []ChatMessage `json:"messages"`
	LastSequence uint64        `json:"last_sequence"`
	HasMore      bool          `json:"has_more"`
}

// SendChatMessageRequest is the request to append a message.
type SendChatMessageRequest struct {
	Message string `json:"message"`
}

// ListChatsResponse is the response for listing conversations. Shown differs
// from Total only when a search query filtered the set, which drives the
// "N results" indicator in the UI.
type ListChatsResponse struct {
	Chats    []ConversationSummary `json:"chats"`
	Total    int                   `json:"total"`
	Shown    int                   `json:"shown"`
	Filtered bool                  `json:"filtered"`
}
