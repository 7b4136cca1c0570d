package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/grading"
	"github.com/quizzq/quizzq-api/internal/service"
	"github.com/quizzq/quizzq-api/internal/utils"
)

// SubmissionHandler manages the student submit-and-grade endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the submission routes to the assignment router group. The
// rate limiter guards the submit route only, reads stay unthrottled.
func (h *SubmissionHandler) Register(router fiber.Router, rateLimit fiber.Handler) {
	if rateLimit != nil {
		router.Post("/:id/submissions", rateLimit, h.submit)
	} else {
		router.Post("/:id/submissions", h.submit)
	}
	router.Get("/:id/submissions/me", h.getOwn)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(c.Context(), callerFromContext(c), assignmentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission graded", submission)
}

func (h *SubmissionHandler) getOwn(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.GetOwn(c.Context(), callerFromContext(c), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var incomplete *grading.IncompleteError
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDuplicateSubmission):
		return utils.SendError(c, fiber.StatusConflict, "assignment already submitted")
	case errors.As(err, &incomplete):
		return utils.SendErrorWithData(c, fiber.StatusBadRequest, "submission is incomplete", fiber.Map{
			"missing_question_ids": incomplete.MissingQuestionIDs,
		})
	case errors.Is(err, grading.ErrIncompleteSubmission):
		return utils.SendError(c, fiber.StatusBadRequest, "submission is incomplete")
	case errors.Is(err, service.ErrUnknownQuestion):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidOption):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, grading.ErrMalformedAssignment):
		h.logger.Error().Err(err).Msg("assignment cannot be graded")
		return utils.SendError(c, fiber.StatusInternalServerError, "assignment is misconfigured")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
