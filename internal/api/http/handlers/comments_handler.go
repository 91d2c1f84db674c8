package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/residence-ops/residence-tickets/internal/api/dto"
	"github.com/residence-ops/residence-tickets/internal/service"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// CommentsHandler manages the ticket thread endpoints.
type CommentsHandler struct {
	comments *service.CommentService
	tickets  *service.TicketService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService, tickets *service.TicketService) *CommentsHandler {
	return &CommentsHandler{comments: comments, tickets: tickets}
}

// CreateComment POST /tickets/:id/comments. The author is the caller.
func (h *CommentsHandler) CreateComment(c *fiber.Ctx) error {
	comment, err := h.comments.CreateComment(c.UserContext(), c.Params("id"), "", c.Body())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	ticket, err := h.tickets.GetTicketByID(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	comments, err := h.comments.GetCommentsForTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponses(comments)})
}
