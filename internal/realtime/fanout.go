package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/cnst"
	"github.com/amoylab/familia/pkg/trace"
	"github.com/amoylab/familia/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Store is the slice of the persistence layer the fanout writes through
type Store interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	GetUserByID(ctx context.Context, id string) (*database.User, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	CreateMessage(ctx context.Context, msg *database.Message) error
	CreateNotification(ctx context.Context, n *database.Notification) error
}

// Publisher pushes events onto user channels. *Hub satisfies it.
type Publisher interface {
	PublishToUser(ctx context.Context, userID string, ev Event)
	MessageSent(senderID, receiverID string)
}

// UserSummary is the public face of a user embedded in pushed events
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

func Summarize(u *database.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Name: u.Name, Avatar: u.Avatar}
}

// MessageView is the data of message:new
type MessageView struct {
	database.Message
	Sender *UserSummary `json:"sender,omitempty"`
}

// NotificationView is the data of notification:new
type NotificationView struct {
	database.Notification
	Sender *UserSummary `json:"sender,omitempty"`
}

// NotificationInput describes a notification to persist and push
type NotificationInput struct {
	RecipientID string
	SenderID    string
	Type        database.NotificationType
	Content     string
	RelatedID   string
}

// Fanout persists messages and notifications, then pushes them live.
// Nothing is pushed unless the write committed.
type Fanout struct {
	store  Store
	pub    Publisher
	logger *zap.Logger
}

func NewFanout(store Store, pub Publisher, logger *zap.Logger) *Fanout {
	return &Fanout{store: store, pub: pub, logger: logger.Named("realtime.fanout")}
}

// SendMessage stores a direct message together with its notification for the
// receiver, then ends the sender's typing indicator and pushes both.
func (f *Fanout) SendMessage(ctx context.Context, senderID, receiverID, content string) (*database.Message, error) {
	span := trace.Tracer(cnst.TraceRealtime).Start(ctx, cnst.SpanSendMessage).
		WithAttrs(attribute.String("sender.id", senderID), attribute.String("receiver.id", receiverID))
	defer span.End()
	ctx = span.Ctx

	content = strings.TrimSpace(content)
	switch {
	case senderID == receiverID:
		return nil, cnst.ErrSelfAction
	case content == "":
		return nil, cnst.ErrEmptyContent
	case len([]rune(content)) > MaxContentLength:
		return nil, cnst.ErrContentTooLong
	}

	sender, err := f.store.GetUserByID(ctx, senderID)
	if err != nil {
		span.Fail(err)
		return nil, fmt.Errorf("load sender: %w", err)
	}
	if _, err := f.store.GetUserByID(ctx, receiverID); err != nil {
		span.Fail(err)
		return nil, fmt.Errorf("load receiver: %w", err)
	}
	friends, err := f.store.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	if !friends {
		return nil, cnst.ErrNotFriends
	}

	msg := &database.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	n := &database.Notification{
		RecipientID: receiverID,
		SenderID:    senderID,
		Type:        database.NotificationMessage,
		Content:     fmt.Sprintf("%s sent you a message", utils.FirstNonEmpty(sender.Name, sender.Username)),
	}
	err = f.store.Transaction(ctx, func(ctx context.Context) error {
		if err := f.store.CreateMessage(ctx, msg); err != nil {
			return err
		}
		n.RelatedID = msg.ID
		return f.store.CreateNotification(ctx, n)
	})
	if err != nil {
		span.Fail(err)
		return nil, fmt.Errorf("persist message: %w", err)
	}

	summary := Summarize(sender)
	f.pub.MessageSent(senderID, receiverID)
	f.pub.PublishToUser(ctx, receiverID, mustEvent(EventMessageNew, MessageView{Message: *msg, Sender: summary}))
	f.pub.PublishToUser(ctx, receiverID, mustEvent(EventNotificationNew, NotificationView{Notification: *n, Sender: summary}))

	f.logger.Debug("message sent",
		zap.String("message_id", msg.ID),
		zap.String("sender_id", senderID),
		zap.String("receiver_id", receiverID))
	return msg, nil
}

// Record persists a notification without pushing it. Use it inside a
// transaction and call Deliver once the transaction commits.
func (f *Fanout) Record(ctx context.Context, in NotificationInput) (*database.Notification, error) {
	if in.RecipientID == "" {
		return nil, fmt.Errorf("notification recipient is required")
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("unknown notification type %q", in.Type)
	}
	n := &database.Notification{
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		Content:     utils.Truncate(in.Content, 500),
		RelatedID:   in.RelatedID,
	}
	if err := f.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	return n, nil
}

// Deliver pushes a stored notification to its recipient
func (f *Fanout) Deliver(ctx context.Context, n *database.Notification) {
	view := NotificationView{Notification: *n}
	if n.SenderID != "" {
		sender, err := f.store.GetUserByID(ctx, n.SenderID)
		if err != nil {
			f.logger.Warn("failed to load notification sender",
				zap.String("notification_id", n.ID),
				zap.Error(err))
		} else {
			view.Sender = Summarize(sender)
		}
	}
	f.pub.PublishToUser(ctx, n.RecipientID, mustEvent(EventNotificationNew, view))
}

// Notify persists then pushes a notification
func (f *Fanout) Notify(ctx context.Context, in NotificationInput) (*database.Notification, error) {
	span := trace.Tracer(cnst.TraceRealtime).Start(ctx, cnst.SpanNotify).
		WithAttrs(attribute.String("recipient.id", in.RecipientID), attribute.String("notification.type", string(in.Type)))
	defer span.End()

	n, err := f.Record(span.Ctx, in)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	f.Deliver(span.Ctx, n)
	return n, nil
}
