// Package notify delivers transient user-facing notifications (toasts).
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a single toast.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	UserID    int       `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New stamps a notification with an id and the current time.
func New(level Level, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier shows notifications. Delivery is best effort and never fails
// the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

func Success(ctx context.Context, n Notifier, message string) {
	if n != nil {
		n.Notify(ctx, New(LevelSuccess, message))
	}
}

func Error(ctx context.Context, n Notifier, message string) {
	if n != nil {
		n.Notify(ctx, New(LevelError, message))
	}
}

// Fanout delivers to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("id", n.ID),
		zap.String("level", string(n.Level)),
		zap.String("message", n.Message),
	}
	if n.UserID > 0 {
		fields = append(fields, zap.Int("user_id", n.UserID))
	}
	if n.Level == LevelError {
		l.logger.Warn("notification", fields...)
		return
	}
	l.logger.Info("notification", fields...)
}
