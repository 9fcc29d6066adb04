package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"jobly/cv-analyzer/internal/models"
	"jobly/cv-analyzer/internal/scoring"
	"jobly/cv-analyzer/internal/services"
)

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindInvalidInput, services.KindInsufficientText:
		return fiber.StatusBadRequest
	case services.KindExtractionFailed:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	message := "internal server error"

	var ae *services.AnalysisError
	if errors.As(err, &ae) {
		message = ae.Message
	}

	return c.Status(statusForKind(kind)).JSON(models.ErrorResponse{
		Success: false,
		Code:    string(kind),
		Error:   message,
	})
}

func toPayload(analysisID string, report scoring.ScoreReport, analyzedAt time.Time) models.AnalysisPayload {
	payload := models.AnalysisPayload{
		AnalysisID:  analysisID,
		ScoreReport: report,
	}
	if !analyzedAt.IsZero() {
		payload.AnalyzedAt = &analyzedAt
	}
	return payload
}

// ErrorHandler renders errors that escape a handler, such as an oversized
// body rejected by fiber, in the same envelope as analysis errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := services.KindInternal

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		if code == fiber.StatusRequestEntityTooLarge || code == fiber.StatusBadRequest {
			kind = services.KindInvalidInput
		}
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Success: false,
		Code:    string(kind),
		Error:   err.Error(),
	})
}
