package dto

import "time"

// SendMessageRequest represents a direct message to persist and deliver
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required,max=1000"`
}

// MessageInfo is a stored message
type MessageInfo struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Content    string     `json:"content"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ConversationInfo is one row of the inbox
type ConversationInfo struct {
	Partner     UserInfo     `json:"partner"`
	LastMessage *MessageInfo `json:"lastMessage"`
	UnreadCount int          `json:"unreadCount"`
}

// NotificationQuery is bound from GET /notifications
type NotificationQuery struct {
	Pagination
	UnreadOnly bool `form:"unreadOnly"`
}

// NotificationInfo is a stored notification with its sender
type NotificationInfo struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	RelatedID string    `json:"relatedId,omitempty"`
	Read      bool      `json:"read"`
	Sender    *UserInfo `json:"sender,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
