package dto

import "time"

type CreatePostRequest struct {
	Content  string `json:"content" binding:"required,max=5000"`
	ImageURL string `json:"imageUrl" binding:"omitempty,url,max=500"`
}

type UpdatePostRequest struct {
	Content  *string `json:"content" binding:"omitempty,max=5000"`
	ImageURL *string `json:"imageUrl" binding:"omitempty,max=500"`
}

// PostInfo is a post with its author
type PostInfo struct {
	ID           string    `json:"id"`
	Author       UserInfo  `json:"author"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LikeResult is returned by the like toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=500"`
}

type CommentInfo struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Author    UserInfo  `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
