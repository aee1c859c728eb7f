package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tabzpay/progress-sub002/internal/mq"
	"go.uber.org/zap"
)

const attrLevel = "level"

// Publisher is the part of *mq.MQ used to broadcast notifications.
type Publisher interface {
	PublishJSON(ctx context.Context, channel string, v any, attrs map[string]string) (string, error)
}

// Subscriber is the part of *mq.MQ used to receive notifications.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// BrokerNotifier publishes notifications to a message queue channel so other
// processes can display them.
type BrokerNotifier struct {
	publisher Publisher
	channel   string
	userID    int
	logger    *zap.Logger
}

func NewBrokerNotifier(publisher Publisher, channel string, logger *zap.Logger) *BrokerNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrokerNotifier{publisher: publisher, channel: channel, logger: logger}
}

// ForUser returns a copy that stamps every notification with userID.
func (b *BrokerNotifier) ForUser(userID int) *BrokerNotifier {
	clone := *b
	clone.userID = userID
	return &clone
}

func (b *BrokerNotifier) Notify(ctx context.Context, n Notification) {
	if n.UserID == 0 {
		n.UserID = b.userID
	}
	attrs := map[string]string{attrLevel: string(n.Level)}
	if n.UserID > 0 {
		attrs[mq.AttrUserID] = strconv.Itoa(n.UserID)
	}
	if _, err := b.publisher.PublishJSON(ctx, b.channel, n, attrs); err != nil {
		b.logger.Warn("publish notification failed",
			zap.String("channel", b.channel),
			zap.String("id", n.ID),
			zap.Error(err),
		)
	}
}

// Listen consumes notifications from channel and hands each decoded one to
// sink until ctx is done. Undecodable messages are logged and rejected.
func Listen(ctx context.Context, sub Subscriber, channel string, sink Notifier, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return sub.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		var n Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			logger.Warn("dropping malformed notification", zap.String("message_id", msg.ID), zap.Error(err))
			return fmt.Errorf("decode notification: %w", err)
		}
		if n.Level == "" {
			n.Level = Level(msg.Attributes[attrLevel])
		}
		sink.Notify(ctx, n)
		return nil
	})
}
