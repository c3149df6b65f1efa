package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// ActivitiesHandler serves per-ticket comments and feedback.
type ActivitiesHandler struct {
	service *service.ActivityService
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activityService *service.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{service: activityService}
}

// ListComments GET /tickets/:id/comments.
func (h *ActivitiesHandler) ListComments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	comments, err := h.service.ListComments(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.NewCommentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment POST /tickets/:id/comments.
func (h *ActivitiesHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	activity, err := h.service.AddComment(c.Context(), principal.User, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CommentResponse{
		ID:        activity.ID,
		Message:   activity.Message(),
		ActorName: principal.User.Name,
		CreatedAt: activity.CreatedAt,
	}})
}

// GetFeedback GET /tickets/:id/feedback.
func (h *ActivitiesHandler) GetFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	feedback, err := h.service.GetFeedback(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	if feedback == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackResponse(feedback)})
}

// SubmitFeedback POST /tickets/:id/feedback.
func (h *ActivitiesHandler) SubmitFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	activity, err := h.service.SubmitFeedback(c.Context(), principal.User, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FeedbackResponse{
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: activity.CreatedAt,
	}})
}
