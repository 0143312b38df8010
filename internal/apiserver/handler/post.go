package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Posts handles the feed, likes and comments
type Posts struct {
	db       database.Database
	fanout   *realtime.Fanout
	presence Presence
	logger   *zap.Logger
}

func NewPosts(db database.Database, fanout *realtime.Fanout, presence Presence, logger *zap.Logger) *Posts {
	return &Posts{db: db, fanout: fanout, presence: presence, logger: logger.Named("apiserver.handler.posts")}
}

type listPostsQuery struct {
	dto.Pagination
	AuthorID string `form:"authorId"`
	// Feed limits the list to the caller and their friends
	Feed bool `form:"feed"`
}

func (h *Posts) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		i18n.RespondWithError(c, i18n.ErrorRequiredField.WithParam("Field", "content"))
		return
	}
	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	post := &database.Post{AuthorID: me.ID, Content: content, ImageURL: strings.TrimSpace(req.ImageURL)}
	if err := h.db.CreatePost(c.Request.Context(), post); err != nil {
		h.logger.Error("failed to create post", zap.String("user_id", me.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Created(i18n.SuccessPostCreated).WithPayload(h.toPostInfo(post, me)).Send(c)
}

func (h *Posts) List(c *gin.Context) {
	var q listPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	var authors []string
	switch {
	case q.AuthorID != "":
		authors = []string{q.AuthorID}
	case q.Feed:
		friends, err := h.db.ListFriendIDs(ctx, uidOf(c))
		if err != nil {
			i18n.RespondWithError(c, err)
			return
		}
		authors = append(friends, uidOf(c))
	}

	posts, err := h.db.ListPosts(ctx, authors, q.Offset, q.Or(defaultPageSize))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	infos, err := h.toPostInfos(ctx, posts)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessPostList).WithPayload(infos).Send(c)
}

func (h *Posts) Get(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	infos, err := h.toPostInfos(c.Request.Context(), []*database.Post{post})
	if err != nil || len(infos) == 0 {
		i18n.RespondWithError(c, i18n.ErrorPostNotFound)
		return
	}
	i18n.Success(i18n.SuccessPostInfo).WithPayload(infos[0]).Send(c)
}

// Update edits a post. Only its author may.
func (h *Posts) Update(c *gin.Context) {
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, ok := h.loadOwnPost(c)
	if !ok {
		return
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			i18n.RespondWithError(c, i18n.ErrorRequiredField.WithParam("Field", "content"))
			return
		}
		post.Content = content
	}
	if req.ImageURL != nil {
		post.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if err := h.db.UpdatePost(c.Request.Context(), post); err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	i18n.Success(i18n.SuccessPostUpdated).WithPayload(h.toPostInfo(post, me)).Send(c)
}

// Delete removes a post with its likes and comments. Only its author may.
func (h *Posts) Delete(c *gin.Context) {
	post, ok := h.loadOwnPost(c)
	if !ok {
		return
	}
	if err := h.db.DeletePost(c.Request.Context(), post.ID); err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessPostDeleted).Send(c)
}

// Like toggles the caller's like. Liking someone else's post notifies its author.
func (h *Posts) Like(c *gin.Context) {
	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	postID := c.Param("id")

	liked, count, err := h.db.ToggleLike(ctx, postID, me.ID)
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrorPostNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to toggle like", zap.String("post_id", postID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	if liked {
		h.notifyAuthor(ctx, postID, me, database.NotificationLike, "%s liked your post")
	}
	i18n.Success(i18n.SuccessPostLiked).WithPayload(dto.LikeResult{Liked: liked, LikeCount: count}).Send(c)
}

// Comment adds a comment and notifies the post's author
func (h *Posts) Comment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		i18n.RespondWithError(c, i18n.ErrorRequiredField.WithParam("Field", "content"))
		return
	}
	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comment := &database.Comment{PostID: c.Param("id"), AuthorID: me.ID, Content: content}
	if err := h.db.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			i18n.RespondWithError(c, i18n.ErrorPostNotFound)
			return
		}
		h.logger.Error("failed to create comment", zap.String("post_id", comment.PostID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	h.notifyAuthor(ctx, comment.PostID, me, database.NotificationComment, "%s commented on your post")
	i18n.Created(i18n.SuccessCommentAdded).WithPayload(dto.CommentInfo{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Author:    toUserInfo(me, h.presence),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}).Send(c)
}

func (h *Posts) Comments(c *gin.Context) {
	var page dto.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comments, err := h.db.ListComments(ctx, post.ID, page.Offset, page.Or(defaultHistoryPageSize))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	ids := make([]string, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.AuthorID)
	}
	authors, err := usersByID(ctx, h.db, ids)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	out := make([]dto.CommentInfo, 0, len(comments))
	for _, cm := range comments {
		author, ok := authors[cm.AuthorID]
		if !ok {
			continue
		}
		out = append(out, dto.CommentInfo{
			ID:        cm.ID,
			PostID:    cm.PostID,
			Author:    toUserInfo(author, h.presence),
			Content:   cm.Content,
			CreatedAt: cm.CreatedAt,
		})
	}
	i18n.Success(i18n.SuccessCommentList).WithPayload(out).Send(c)
}

// notifyAuthor tells the post's author about actor's action. Failures are logged only.
func (h *Posts) notifyAuthor(ctx context.Context, postID string, actor *database.User, typ database.NotificationType, format string) {
	post, err := h.db.GetPostByID(ctx, postID)
	if err != nil || post.AuthorID == actor.ID {
		return
	}
	_, err = h.fanout.Notify(ctx, realtime.NotificationInput{
		RecipientID: post.AuthorID,
		SenderID:    actor.ID,
		Type:        typ,
		Content:     fmt.Sprintf(format, displayName(actor)),
		RelatedID:   post.ID,
	})
	if err != nil {
		h.logger.Warn("failed to notify post author",
			zap.String("post_id", post.ID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}

func (h *Posts) loadPost(c *gin.Context) (*database.Post, bool) {
	post, err := h.db.GetPostByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrorPostNotFound)
		return nil, false
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return nil, false
	}
	return post, true
}

func (h *Posts) loadOwnPost(c *gin.Context) (*database.Post, bool) {
	post, ok := h.loadPost(c)
	if !ok {
		return nil, false
	}
	if post.AuthorID != uidOf(c) {
		i18n.RespondWithError(c, i18n.ErrorNotPostAuthor)
		return nil, false
	}
	return post, true
}

func (h *Posts) toPostInfo(p *database.Post, author *database.User) dto.PostInfo {
	return dto.PostInfo{
		ID:           p.ID,
		Author:       toUserInfo(author, h.presence),
		Content:      p.Content,
		ImageURL:     p.ImageURL,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (h *Posts) toPostInfos(ctx context.Context, posts []*database.Post) ([]dto.PostInfo, error) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := usersByID(ctx, h.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PostInfo, 0, len(posts))
	for _, p := range posts {
		if author, ok := authors[p.AuthorID]; ok {
			out = append(out, h.toPostInfo(p, author))
		}
	}
	return out, nil
}

