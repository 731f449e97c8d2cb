package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-engine/internal/api/dto"
	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/repository"
	"github.com/spec-kit/triage-engine/internal/service"
	"github.com/spec-kit/triage-engine/pkg/util"
)

// TriageHandler manages ticket intake and triage endpoints.
type TriageHandler struct {
	service *service.TriageService
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageService *service.TriageService) *TriageHandler {
	return &TriageHandler{service: triageService}
}

// CreateTicket POST /tickets.
func (h *TriageHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.CreatorID == "" || req.Title == "" {
		return util.NewValidationError("creator_id and title required", nil)
	}

	input := service.TicketCreateInput{
		CreatorID:   req.CreatorID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
		Attributes:  req.Attributes,
	}
	ticket, err := h.service.SubmitTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ListTickets GET /tickets.
func (h *TriageHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	var filter repository.TicketFilter
	if v := c.Query("creator_id"); v != "" {
		filter.CreatorID = &v
	}
	if v := c.Query("team_id"); v != "" {
		filter.TeamID = &v
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(s))
		}
	}
	for _, p := range strings.Split(c.Query("priority"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(p))
		}
	}
	filter.Limit = c.QueryInt("limit", 50)
	filter.Offset = c.QueryInt("offset", 0)
	return filter
}

// GetTicket GET /tickets/:id.
func (h *TriageHandler) GetTicket(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return util.NewValidationError("ticket id required", nil)
	}
	ticket, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// TriageTicket POST /tickets/:id/triage.
func (h *TriageHandler) TriageTicket(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return util.NewValidationError("ticket id required", nil)
	}

	outcome, err := h.service.TriageTicket(c.UserContext(), id)
	if err != nil {
		return err
	}

	response := dto.TriageResponse{
		Ticket:   dto.TicketFromDomain(outcome.Ticket),
		Decision: dto.DecisionFromDomain(outcome.Decision),
		Result:   dto.ResultFromDomain(outcome.Result),
	}
	return c.JSON(fiber.Map{"data": response})
}
