package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// NotificationsHandler exposes the delivery audit log to admins.
type NotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /admin/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	filter := repository.NotificationFilter{}
	if v := c.Query("status"); v != "" {
		status := domain.NotificationStatus(v)
		if !domain.ValidNotificationStatus(status) {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": v})
		}
		filter.Status = &status
	}
	if v := c.Query("type"); v != "" {
		notifType := domain.NotificationType(v)
		if !domain.ValidNotificationType(notifType) {
			return apperrors.NewValidationError("unknown type", map[string]any{"type": v})
		}
		filter.Type = &notifType
	}
	if v := c.Query("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}

	records, err := h.notifications.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewNotificationResponse(record))
	}
	return c.JSON(fiber.Map{"data": items})
}
