package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered member of the network
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string     `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email     string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"not null"`
	Name      string     `json:"name" gorm:"type:varchar(100)"`
	Bio       string     `json:"bio" gorm:"type:text"`
	Avatar    string     `json:"avatar" gorm:"type:varchar(500)"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FriendshipStatus is the lifecycle state of a friendship row
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship links a requester to an addressee. Rejected requests are deleted.
type Friendship struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RequesterID string           `json:"requesterId" gorm:"type:varchar(36);not null;uniqueIndex:idx_friendship_pair"`
	AddresseeID string           `json:"addresseeId" gorm:"type:varchar(36);not null;uniqueIndex:idx_friendship_pair;index"`
	Status      FriendshipStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (f *Friendship) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Peer returns the other side of the friendship as seen by userID
func (f *Friendship) Peer(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// Message is a persisted direct message
type Message struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID   string     `json:"senderId" gorm:"type:varchar(36);not null;index"`
	ReceiverID string     `json:"receiverId" gorm:"type:varchar(36);not null;index"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	Read       bool       `json:"read" gorm:"column:is_read;not null;default:false"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"index"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationMessage       NotificationType = "message"
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAccept  NotificationType = "friend_accept"
	NotificationFriendReject  NotificationType = "friend_reject"
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
	NotificationSystem        NotificationType = "system"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationFriendRequest, NotificationFriendAccept,
		NotificationFriendReject, NotificationLike, NotificationComment, NotificationSystem:
		return true
	}
	return false
}

// Notification is a persisted record addressed to one recipient
type Notification struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RecipientID string           `json:"recipientId" gorm:"type:varchar(36);not null;index"`
	SenderID    string           `json:"senderId,omitempty" gorm:"type:varchar(36)"`
	Type        NotificationType `json:"type" gorm:"type:varchar(32);not null"`
	Content     string           `json:"content" gorm:"type:text"`
	RelatedID   string           `json:"relatedId,omitempty" gorm:"type:varchar(36)"`
	Read        bool             `json:"read" gorm:"column:is_read;not null;default:false;index"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Post is a text post on the feed
type Post struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID     string    `json:"authorId" gorm:"type:varchar(36);not null;index"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	ImageURL     string    `json:"imageUrl,omitempty" gorm:"type:varchar(500)"`
	LikeCount    int       `json:"likeCount" gorm:"not null;default:0"`
	CommentCount int       `json:"commentCount" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Like marks a user's like on a post
type Like struct {
	PostID    string    `json:"postId" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a reply on a post
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"postId" gorm:"type:varchar(36);not null;index"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(36);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ConversationSummary is one row of a user's inbox
type ConversationSummary struct {
	PeerID      string   `json:"peerId"`
	LastMessage *Message `json:"lastMessage"`
	UnreadCount int      `json:"unreadCount"`
}

func allModels() []any {
	return []any{&User{}, &Friendship{}, &Message{}, &Notification{}, &Post{}, &Like{}, &Comment{}}
}
