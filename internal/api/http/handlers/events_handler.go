package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// EventsHandler streams live update events over SSE.
type EventsHandler struct {
	broker    *events.Broker
	keepAlive time.Duration
	logger    *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(broker *events.Broker, keepAlive time.Duration, logger *zap.Logger) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &EventsHandler{broker: broker, keepAlive: keepAlive, logger: logger}
}

// Stream GET /events. The subscription begins at connect time; events
// published earlier are never replayed, clients refetch state on connect.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sub := h.broker.Subscribe()
	userID := principal.User.ID

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		fmt.Fprintf(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		h.logger.Debug("event stream opened", zap.String("user_id", userID))

		for {
			select {
			case event, open := <-sub.C:
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Channel.Name(), payload)
				if err := w.Flush(); err != nil {
					h.logger.Debug("event stream closed", zap.String("user_id", userID))
					return
				}
			case <-ticker.C:
				fmt.Fprintf(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					h.logger.Debug("event stream closed", zap.String("user_id", userID))
					return
				}
			}
		}
	}))
	return nil
}
