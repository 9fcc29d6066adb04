package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"jobly/cv-analyzer/internal/logger"
	"jobly/cv-analyzer/internal/metrics"
	"jobly/cv-analyzer/internal/scoring"
)

const (
	DefaultMaxFileSize    int64 = 5 * 1024 * 1024
	DefaultPersistTimeout       = 5 * time.Second

	// Readers accept the header anywhere in the first KiB.
	pdfHeaderWindow = 1024

	// user_id comes straight from the client.
	maxLoggedIDLength = 64
)

var pdfMagic = []byte("%PDF-")

type AnalyzeRequest struct {
	Data      []byte
	FileName  string
	SubjectID string
}

type AnalysisResult struct {
	Hash       string
	AnalysisID string
	Report     scoring.ScoreReport
	Cached     bool
	AnalyzedAt time.Time
}

type AnalyzerOptions struct {
	MaxFileSize    int64
	PersistTimeout time.Duration
}

type AnalyzerService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error)
	History(ctx context.Context, subjectID string) ([]HistoryEntry, error)
}

type analyzerService struct {
	cache          AnalysisCache
	storage        StorageService
	parser         PDFParserService
	engine         *scoring.Engine
	maxFileSize    int64
	persistTimeout time.Duration
	log            *zap.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

func NewAnalyzerService(
	cache AnalysisCache,
	storage StorageService,
	parser PDFParserService,
	engine *scoring.Engine,
	opts AnalyzerOptions,
	log *zap.Logger,
) AnalyzerService {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}

	return &analyzerService{
		cache:          cache,
		storage:        storage,
		parser:         parser,
		engine:         engine,
		maxFileSize:    opts.MaxFileSize,
		persistTimeout: opts.PersistTimeout,
		log:            log.Named("analyzer"),
		tracer:         otel.Tracer("cv-analyzer"),
		now:            time.Now,
	}
}

// Analyze runs hash, lookup, extract, score and persist for one upload.
// Persistence failures are logged and never change the returned result.
func (s *analyzerService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analyzer.Analyze")
	defer span.End()

	result, err := s.analyze(ctx, span, req)
	if err != nil {
		kind := KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		metrics.AnalysesTotal.WithLabelValues(strings.ToLower(string(kind))).Inc()
		s.log.Info("analysis rejected",
			userField(req.SubjectID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := "analyzed"
	if result.Cached {
		outcome = "cache_hit"
	}
	metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	metrics.AnalysisDuration.WithLabelValues(boolLabel(result.Cached)).Observe(time.Since(start).Seconds())

	s.log.Info("analysis completed",
		userField(req.SubjectID),
		zap.String("cv_hash", result.Hash),
		zap.Bool("cached", result.Cached),
		zap.Int("score_total", result.Report.TotalScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *analyzerService) analyze(ctx context.Context, span trace.Span, req AnalyzeRequest) (*AnalysisResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	hash := ContentHash(req.Data)
	span.SetAttributes(attribute.String("cv.hash", hash), attribute.Int("cv.size", len(req.Data)))

	cached, found, err := s.cache.Lookup(ctx, hash)
	if err != nil {
		// An unavailable cache degrades to a fresh analysis
		s.log.Warn("cache lookup failed, analyzing without cache", zap.String("cv_hash", hash), zap.Error(err))
	}
	if found {
		span.SetAttributes(attribute.Bool("cv.cached", true))
		if err := s.cache.RecordHit(ctx, hash, req.SubjectID); err != nil {
			s.log.Warn("failed to record cache hit in history",
				zap.String("cv_hash", hash),
				userField(req.SubjectID),
				zap.Error(err),
			)
		}
		return &AnalysisResult{
			Hash:       hash,
			AnalysisID: cached.AnalysisID,
			Report:     cached.Report,
			Cached:     true,
			AnalyzedAt: cached.AnalyzedAt,
		}, nil
	}
	span.SetAttributes(attribute.Bool("cv.cached", false))

	text, err := s.extract(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, newAnalysisError(KindInternal, "analysis cancelled", err)
	}

	report, err := s.score(ctx, text)
	if err != nil {
		return nil, err
	}

	s.persist(ctx, hash, req.SubjectID, report)

	return &AnalysisResult{
		Hash:       hash,
		Report:     *report,
		Cached:     false,
		AnalyzedAt: s.now().UTC(),
	}, nil
}

func (s *analyzerService) validate(req AnalyzeRequest) error {
	if strings.TrimSpace(req.SubjectID) == "" {
		return newAnalysisError(KindInvalidInput, "user_id is required", nil)
	}
	if len(req.Data) == 0 {
		return newAnalysisError(KindInvalidInput, "no file uploaded", nil)
	}
	if int64(len(req.Data)) > s.maxFileSize {
		return newAnalysisError(KindInvalidInput, fmt.Sprintf("file too large, max size is %d bytes", s.maxFileSize), nil)
	}
	if req.FileName != "" && !strings.EqualFold(filepath.Ext(req.FileName), ".pdf") {
		return newAnalysisError(KindInvalidInput, "only PDF files are accepted", nil)
	}

	header := req.Data
	if len(header) > pdfHeaderWindow {
		header = header[:pdfHeaderWindow]
	}
	if !bytes.Contains(header, pdfMagic) {
		return newAnalysisError(KindInvalidInput, "file is not a PDF document", nil)
	}
	return nil
}

// extract stages the upload on disk for the parser and removes it on return.
func (s *analyzerService) extract(ctx context.Context, req AnalyzeRequest) (string, error) {
	_, span := s.tracer.Start(ctx, "analyzer.extract")
	defer span.End()

	filename, filePath, err := s.storage.SaveBytes(req.Data, req.FileName)
	if err != nil {
		return "", newAnalysisError(KindInternal, "failed to stage upload", err)
	}
	defer func() {
		if err := s.storage.DeleteFile(filename); err != nil {
			s.log.Warn("failed to remove staged upload", zap.String("file", filename), zap.Error(err))
		}
	}()

	text, err := s.parser.ExtractText(filePath)
	if err != nil {
		if errors.Is(err, ErrNoTextContent) {
			return "", newAnalysisError(KindInsufficientText, "the PDF looks empty or unreadable, make sure it contains text", err)
		}
		return "", newAnalysisError(KindExtractionFailed, "failed to extract text from the PDF", err)
	}

	span.SetAttributes(attribute.Int("cv.text_length", len(text)))
	return text, nil
}

func (s *analyzerService) score(ctx context.Context, text string) (*scoring.ScoreReport, error) {
	_, span := s.tracer.Start(ctx, "analyzer.score")
	defer span.End()

	report, err := s.engine.Analyze(text)
	if err != nil {
		if errors.Is(err, scoring.ErrInsufficientText) {
			return nil, newAnalysisError(KindInsufficientText, "the PDF looks empty or unreadable, make sure it contains text", err)
		}
		return nil, newAnalysisError(KindInternal, "failed to score the CV", err)
	}

	span.SetAttributes(attribute.Int("cv.score_total", report.TotalScore))
	return report, nil
}

// persist detaches from the caller's cancellation so a disconnected client
// does not abort a write that is already underway.
func (s *analyzerService) persist(ctx context.Context, hash, subjectID string, report *scoring.ScoreReport) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	persistCtx, span := s.tracer.Start(persistCtx, "analyzer.persist")
	defer span.End()

	if err := s.cache.Store(persistCtx, hash, subjectID, report); err != nil {
		perr := newAnalysisError(KindPersistenceFailure, "failed to persist analysis", err)
		span.RecordError(perr)
		metrics.PersistFailures.Inc()
		s.log.Warn("analysis not persisted, returning result anyway",
			zap.String("cv_hash", hash),
			userField(subjectID),
			zap.String("kind", string(perr.Kind)),
			zap.Error(err),
		)
	}
}

func (s *analyzerService) History(ctx context.Context, subjectID string) ([]HistoryEntry, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, newAnalysisError(KindInvalidInput, "user_id is required", nil)
	}

	ctx, span := s.tracer.Start(ctx, "analyzer.History")
	defer span.End()

	entries, err := s.cache.History(ctx, subjectID)
	if err != nil {
		span.RecordError(err)
		return nil, newAnalysisError(KindInternal, "failed to load analysis history", err)
	}
	return entries, nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func userField(id string) zap.Field {
	return zap.String("user_id", logger.TruncateForLog(id, maxLoggedIDLength))
}
