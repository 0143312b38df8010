package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// store implements Database on any gorm dialect
type store struct {
	db *gorm.DB
}

func openStore(dialector gorm.Dialector) (*store, error) {
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := gormDB.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &store{db: gormDB}, nil
}

// Close closes the database connection
func (s *store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TransactionFromContext(ctx) != nil {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

func first[T any](q *gorm.DB) (*T, error) {
	var out T
	if err := q.First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func affectedOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

func (s *store) CreateUser(ctx context.Context, user *User) error {
	return translate(getDBFromContext(ctx, s.db).Create(user).Error)
}

func (s *store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return first[User](getDBFromContext(ctx, s.db).Where("id = ?", id))
}

func (s *store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return first[User](getDBFromContext(ctx, s.db).Where("email = ?", strings.ToLower(email)))
}

func (s *store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return first[User](getDBFromContext(ctx, s.db).Where("username = ?", username))
}

func (s *store) GetUsersByIDs(ctx context.Context, ids []string) ([]*User, error) {
	var users []*User
	if len(ids) == 0 {
		return users, nil
	}
	err := getDBFromContext(ctx, s.db).Where("id IN ?", ids).Order("username asc").Find(&users).Error
	return users, err
}

func (s *store) SearchUsers(ctx context.Context, terms []string, excludeID string, limit int) ([]*User, error) {
	q := getDBFromContext(ctx, s.db).Model(&User{})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	for _, term := range terms {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(username) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	}
	var users []*User
	err := q.Order("username asc").Limit(limit).Find(&users).Error
	return users, err
}

func (s *store) UpdateUser(ctx context.Context, user *User) error {
	return translate(getDBFromContext(ctx, s.db).Save(user).Error)
}

// DeleteUser removes the user and every row that references them
func (s *store) DeleteUser(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		tx := getDBFromContext(ctx, s.db)

		var postIDs []string
		if err := tx.Model(&Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		steps := []struct {
			model any
			where string
			args  []any
		}{
			{&Like{}, "user_id = ? OR post_id IN ?", []any{id, postIDs}},
			{&Comment{}, "author_id = ? OR post_id IN ?", []any{id, postIDs}},
			{&Post{}, "author_id = ?", []any{id}},
			{&Friendship{}, "requester_id = ? OR addressee_id = ?", []any{id, id}},
			{&Message{}, "sender_id = ? OR receiver_id = ?", []any{id, id}},
			{&Notification{}, "recipient_id = ? OR sender_id = ?", []any{id, id}},
		}
		for _, st := range steps {
			if err := tx.Where(st.where, st.args...).Delete(st.model).Error; err != nil {
				return err
			}
		}
		return affectedOrNotFound(tx.Where("id = ?", id).Delete(&User{}))
	})
}

func (s *store) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	return getDBFromContext(ctx, s.db).Model(&User{}).Where("id = ?", id).
		UpdateColumn("last_seen", at.UTC()).Error
}

// Friendships

func (s *store) CreateFriendship(ctx context.Context, f *Friendship) error {
	return translate(getDBFromContext(ctx, s.db).Create(f).Error)
}

func (s *store) GetFriendshipByID(ctx context.Context, id string) (*Friendship, error) {
	return first[Friendship](getDBFromContext(ctx, s.db).Where("id = ?", id))
}

func (s *store) GetFriendshipBetween(ctx context.Context, a, b string) (*Friendship, error) {
	return first[Friendship](getDBFromContext(ctx, s.db).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a))
}

func (s *store) UpdateFriendshipStatus(ctx context.Context, id string, status FriendshipStatus) error {
	return affectedOrNotFound(getDBFromContext(ctx, s.db).Model(&Friendship{}).
		Where("id = ?", id).Update("status", status))
}

func (s *store) DeleteFriendship(ctx context.Context, id string) error {
	return affectedOrNotFound(getDBFromContext(ctx, s.db).Where("id = ?", id).Delete(&Friendship{}))
}

func (s *store) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var n int64
	err := getDBFromContext(ctx, s.db).Model(&Friendship{}).
		Where("status = ?", FriendshipAccepted).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

func (s *store) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []*Friendship
	err := getDBFromContext(ctx, s.db).
		Where("status = ?", FriendshipAccepted).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.Peer(userID))
	}
	return ids, nil
}

func (s *store) ListIncomingRequests(ctx context.Context, userID string) ([]*Friendship, error) {
	var rows []*Friendship
	err := getDBFromContext(ctx, s.db).
		Where("addressee_id = ? AND status = ?", userID, FriendshipPending).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

// ListSuggestions returns users with no friendship row of any status toward userID
func (s *store) ListSuggestions(ctx context.Context, userID string, limit int) ([]*User, error) {
	tx := getDBFromContext(ctx, s.db)
	related := tx.Model(&Friendship{}).Select("addressee_id").Where("requester_id = ?", userID)
	relatedBack := tx.Model(&Friendship{}).Select("requester_id").Where("addressee_id = ?", userID)

	var users []*User
	err := tx.Where("id <> ?", userID).
		Where("id NOT IN (?)", related).
		Where("id NOT IN (?)", relatedBack).
		Order("created_at desc").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Messages

func (s *store) CreateMessage(ctx context.Context, msg *Message) error {
	return translate(getDBFromContext(ctx, s.db).Create(msg).Error)
}

func (s *store) GetMessageByID(ctx context.Context, id string) (*Message, error) {
	return first[Message](getDBFromContext(ctx, s.db).Where("id = ?", id))
}

// GetConversation returns messages between a and b, oldest first
func (s *store) GetConversation(ctx context.Context, a, b string, offset, limit int) ([]*Message, error) {
	var msgs []*Message
	err := getDBFromContext(ctx, s.db).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at asc").Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (s *store) MarkConversationRead(ctx context.Context, readerID, peerID string) (int64, error) {
	res := getDBFromContext(ctx, s.db).Model(&Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", readerID, peerID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// ListConversations groups the user's messages by peer, most recent conversation first
func (s *store) ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	var msgs []*Message
	err := getDBFromContext(ctx, s.db).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc").Order("id desc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	byPeer := make(map[string]*ConversationSummary)
	var out []*ConversationSummary
	for _, m := range msgs {
		peer := m.SenderID
		if peer == userID {
			peer = m.ReceiverID
		}
		sum, ok := byPeer[peer]
		if !ok {
			sum = &ConversationSummary{PeerID: peer, LastMessage: m}
			byPeer[peer] = sum
			out = append(out, sum)
		}
		if m.ReceiverID == userID && !m.Read {
			sum.UnreadCount++
		}
	}
	return out, nil
}

func (s *store) DeleteMessage(ctx context.Context, id string) error {
	return affectedOrNotFound(getDBFromContext(ctx, s.db).Where("id = ?", id).Delete(&Message{}))
}

// Notifications

func (s *store) CreateNotification(ctx context.Context, n *Notification) error {
	return translate(getDBFromContext(ctx, s.db).Create(n).Error)
}

func (s *store) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*Notification, error) {
	q := getDBFromContext(ctx, s.db).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []*Notification
	err := q.Order("created_at desc").Order("id desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

func (s *store) CountUnreadNotifications(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := getDBFromContext(ctx, s.db).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// MarkNotificationRead reports ErrNotFound when the notification belongs to someone else
func (s *store) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	if _, err := first[Notification](getDBFromContext(ctx, s.db).
		Where("id = ? AND recipient_id = ?", id, recipientID)); err != nil {
		return err
	}
	return getDBFromContext(ctx, s.db).Model(&Notification{}).
		Where("id = ?", id).Update("is_read", true).Error
}

func (s *store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	res := getDBFromContext(ctx, s.db).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *store) DeleteNotification(ctx context.Context, id, recipientID string) error {
	return affectedOrNotFound(getDBFromContext(ctx, s.db).
		Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&Notification{}))
}

func (s *store) ClearNotifications(ctx context.Context, recipientID string) (int64, error) {
	res := getDBFromContext(ctx, s.db).Where("recipient_id = ?", recipientID).Delete(&Notification{})
	return res.RowsAffected, res.Error
}

// Posts

func (s *store) CreatePost(ctx context.Context, post *Post) error {
	return translate(getDBFromContext(ctx, s.db).Create(post).Error)
}

func (s *store) GetPostByID(ctx context.Context, id string) (*Post, error) {
	return first[Post](getDBFromContext(ctx, s.db).Where("id = ?", id))
}

// ListPosts returns newest posts first. A nil authorIDs lists every author.
func (s *store) ListPosts(ctx context.Context, authorIDs []string, offset, limit int) ([]*Post, error) {
	q := getDBFromContext(ctx, s.db)
	if authorIDs != nil {
		if len(authorIDs) == 0 {
			return []*Post{}, nil
		}
		q = q.Where("author_id IN ?", authorIDs)
	}
	var posts []*Post
	err := q.Order("created_at desc").Order("id desc").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (s *store) UpdatePost(ctx context.Context, post *Post) error {
	return translate(getDBFromContext(ctx, s.db).Model(post).
		Select("content", "image_url", "updated_at").Updates(post).Error)
}

func (s *store) DeletePost(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		tx := getDBFromContext(ctx, s.db)
		if err := tx.Where("post_id = ?", id).Delete(&Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		return affectedOrNotFound(tx.Where("id = ?", id).Delete(&Post{}))
	})
}

// ToggleLike adds the like when absent and removes it otherwise
func (s *store) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var liked bool
	var count int
	err := s.Transaction(ctx, func(ctx context.Context) error {
		tx := getDBFromContext(ctx, s.db)
		if _, err := first[Post](tx.Where("id = ?", postID)); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&Like{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&Like{PostID: postID, UserID: userID}).Error; err != nil {
				return translate(err)
			}
			delta = 1
			liked = true
		}
		if err := tx.Model(&Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error; err != nil {
			return err
		}
		post, err := first[Post](tx.Where("id = ?", postID))
		if err != nil {
			return err
		}
		count = post.LikeCount
		return nil
	})
	return liked, count, err
}

func (s *store) CreateComment(ctx context.Context, c *Comment) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		tx := getDBFromContext(ctx, s.db)
		if err := tx.Create(c).Error; err != nil {
			return translate(err)
		}
		return affectedOrNotFound(tx.Model(&Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")))
	})
}

func (s *store) ListComments(ctx context.Context, postID string, offset, limit int) ([]*Comment, error) {
	var out []*Comment
	err := getDBFromContext(ctx, s.db).Where("post_id = ?", postID).
		Order("created_at asc").Order("id asc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}
