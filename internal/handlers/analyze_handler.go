package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"jobly/cv-analyzer/internal/models"
	"jobly/cv-analyzer/internal/services"
)

type AnalyzeHandler struct {
	analyzer    services.AnalyzerService
	maxFileSize int64
}

func NewAnalyzeHandler(analyzer services.AnalyzerService, maxFileSize int64) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:    analyzer,
		maxFileSize: maxFileSize,
	}
}

// HandleAnalyze handles POST /cv-analyzer/analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	cvFile, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Success: false,
			Code:    string(services.KindInvalidInput),
			Error:   "no file uploaded, send the CV as the 'cv' form field",
		})
	}

	if cvFile.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Success: false,
			Code:    string(services.KindInvalidInput),
			Error:   fmt.Sprintf("file too large, max size is %d bytes", h.maxFileSize),
		})
	}

	src, err := cvFile.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Success: false,
			Code:    string(services.KindInternal),
			Error:   "failed to open uploaded file",
		})
	}
	defer src.Close()

	// One extra byte lets the analyzer see an oversized body
	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Success: false,
			Code:    string(services.KindInternal),
			Error:   "failed to read uploaded file",
		})
	}

	result, err := h.analyzer.Analyze(c.UserContext(), services.AnalyzeRequest{
		Data:      data,
		FileName:  cvFile.Filename,
		SubjectID: c.FormValue("user_id"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(models.AnalyzeResponse{
		Success:  true,
		Cached:   result.Cached,
		Analysis: toPayload(result.AnalysisID, result.Report, result.AnalyzedAt),
	})
}
