package api

import (
	"context"
	"fmt"

	"github.com/pestguard/fieldops/internal/model"
)

// ListNotifications retrieves all notifications for the current user.
func (c *Client) ListNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := c.Get(ctx, "/notifications", &notifications); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	path := fmt.Sprintf("/notifications/%d/read", id)
	if err := c.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead flags every notification as read in one call.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.Post(ctx, "/notifications/read-all", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}
