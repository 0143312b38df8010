package dto

import "time"

// Pagination is bound from offset/limit query parameters
type Pagination struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Or returns the limit, or def when unset
func (p Pagination) Or(def int) int {
	if p.Limit == 0 {
		return def
	}
	return p.Limit
}

// SearchUsersQuery is bound from GET /users
type SearchUsersQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// FriendRequestInfo is an incoming friend request with its requester
type FriendRequestInfo struct {
	ID        string    `json:"id"`
	From      UserInfo  `json:"from"`
	CreatedAt time.Time `json:"createdAt"`
}

// FriendStatus describes the relation between the caller and another user
type FriendStatus struct {
	// Status is one of none, pending_sent, pending_received, friends
	Status    string `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}

const (
	FriendStatusNone            = "none"
	FriendStatusPendingSent     = "pending_sent"
	FriendStatusPendingReceived = "pending_received"
	FriendStatusFriends         = "friends"
)
