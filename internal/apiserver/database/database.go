package database

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Database is the persistence collaborator behind the REST handlers and the realtime fanout
type Database interface {
	Close() error

	// Transaction runs fn with a ctx that routes every call through one transaction
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*User, error)
	SearchUsers(ctx context.Context, terms []string, excludeID string, limit int) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
	TouchLastSeen(ctx context.Context, id string, at time.Time) error

	CreateFriendship(ctx context.Context, f *Friendship) error
	GetFriendshipByID(ctx context.Context, id string) (*Friendship, error)
	GetFriendshipBetween(ctx context.Context, a, b string) (*Friendship, error)
	UpdateFriendshipStatus(ctx context.Context, id string, status FriendshipStatus) error
	DeleteFriendship(ctx context.Context, id string) error
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	ListIncomingRequests(ctx context.Context, userID string) ([]*Friendship, error)
	ListSuggestions(ctx context.Context, userID string, limit int) ([]*User, error)

	CreateMessage(ctx context.Context, msg *Message) error
	GetMessageByID(ctx context.Context, id string) (*Message, error)
	GetConversation(ctx context.Context, a, b string, offset, limit int) ([]*Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID string) (int64, error)
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)
	DeleteMessage(ctx context.Context, id string) error

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*Notification, error)
	CountUnreadNotifications(ctx context.Context, recipientID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)
	DeleteNotification(ctx context.Context, id, recipientID string) error
	ClearNotifications(ctx context.Context, recipientID string) (int64, error)

	CreatePost(ctx context.Context, post *Post) error
	GetPostByID(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context, authorIDs []string, offset, limit int) ([]*Post, error)
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, count int, err error)
	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, postID string, offset, limit int) ([]*Comment, error)
}
