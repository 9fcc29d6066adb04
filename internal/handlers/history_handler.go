package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jobly/cv-analyzer/internal/models"
	"jobly/cv-analyzer/internal/services"
)

type HistoryHandler struct {
	analyzer services.AnalyzerService
}

func NewHistoryHandler(analyzer services.AnalyzerService) *HistoryHandler {
	return &HistoryHandler{
		analyzer: analyzer,
	}
}

// HandleGetHistory handles GET /cv-analyzer/history/:user_id
func (h *HistoryHandler) HandleGetHistory(c *fiber.Ctx) error {
	entries, err := h.analyzer.History(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return writeError(c, err)
	}

	history := make([]models.HistoryItem, 0, len(entries))
	for _, entry := range entries {
		history = append(history, models.HistoryItem{
			AnalysisPayload: toPayload(entry.AnalysisID, entry.Report, entry.AnalyzedAt),
			Cached:          entry.Cached,
		})
	}

	return c.JSON(models.HistoryResponse{
		Success: true,
		History: history,
	})
}
