package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quizzq/quizzq-api/internal/service"
	"github.com/quizzq/quizzq-api/internal/utils"
)

// ProgressHandler serves the student progress endpoint.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler builds a progress handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/progress", h.progress)
}

func (h *ProgressHandler) progress(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	progress, err := h.service.GetProgress(c.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}
