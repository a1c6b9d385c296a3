// Package notify creates and serves the follow and like notifications
// produced as side effects of social graph and engagement mutations.
package notify

import (
	"context"
	"fmt"

	"github.com/ayush/socialnet/backend/internal/logging"
	"github.com/ayush/socialnet/backend/internal/metrics"
	"github.com/ayush/socialnet/backend/internal/models"
)

// Store defines notification persistence.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, to string) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, to string) error
	DeleteNotifications(ctx context.Context, to string) error
}

// Emitter persists a notification for each qualifying event.
type Emitter struct {
	store Store
}

func NewEmitter(store Store) *Emitter {
	return &Emitter{store: store}
}

// Emit records that from did kind to to.
func (e *Emitter) Emit(ctx context.Context, from, to string, kind models.NotificationType) error {
	n := &models.Notification{From: from, To: to, Type: kind}
	if err := e.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("emit %s notification: %w", kind, err)
	}
	metrics.NotificationsEmitted.WithLabelValues(string(kind)).Inc()
	logging.FromContext(ctx).Debug("notification emitted", "type", kind, "from", from, "to", to)
	return nil
}
