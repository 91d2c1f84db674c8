package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/residence-ops/residence-tickets/internal/api/dto"
	"github.com/residence-ops/residence-tickets/internal/service"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// TicketsHandler manages ticket endpoints. Request bodies are handed to the
// services undecoded; the validation layer owns their schema.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	ticket, err := h.service.CreateTicket(c.UserContext(), c.Body())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets. ?view=partitioned returns active and archived
// tickets separately.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.GetAllTickets(c.UserContext())
	if err != nil {
		return err
	}
	if c.Query("view") == "partitioned" {
		active, archived := h.service.PartitionTickets(tickets)
		return c.JSON(fiber.Map{"data": dto.TicketListResponse{
			Active:   dto.NewTicketResponses(active),
			Archived: dto.NewTicketResponses(archived),
		}})
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id := c.Params("id")
	ticket, err := h.service.GetTicketByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
