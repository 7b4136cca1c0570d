package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/repository"
	"github.com/quizzq/quizzq-api/internal/service"
	"github.com/quizzq/quizzq-api/internal/utils"
)

// TeacherAssignmentHandler serves the authoring endpoints. These responses
// include correct-option markers, so the routes must stay behind the teacher
// role guard.
type TeacherAssignmentHandler struct {
	assignments service.AssignmentService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewTeacherAssignmentHandler builds the authoring handler.
func NewTeacherAssignmentHandler(assignments service.AssignmentService, submissions service.SubmissionService, logger zerolog.Logger) *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{
		assignments: assignments,
		submissions: submissions,
		logger:      logger.With().Str("component", "teacher_assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TeacherAssignmentHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
	router.Get("/:id/submissions", h.listSubmissions)
}

func (h *TeacherAssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.assignments.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *TeacherAssignmentHandler) list(c *fiber.Ctx) error {
	request := dto.AssignmentListRequest{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   strings.TrimSpace(c.Query("sort")),
	}

	if classID, err := parseQueryUint(c, "class_id"); err == nil && classID != nil {
		request.ClassID = classID
	}
	if page, err := parseQueryInt(c, "page"); err == nil {
		request.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		request.PageSize = pageSize
	}

	assignments, err := h.assignments.ListForTeacher(c.Context(), request)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *TeacherAssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.assignments.GetForTeacher(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *TeacherAssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.assignments.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment deleted", nil)
}

func (h *TeacherAssignmentHandler) listSubmissions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.submissions.List(c.Context(), repository.SubmissionFilter{AssignmentID: &id})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *TeacherAssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrInvalidQuestion):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
