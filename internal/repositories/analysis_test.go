package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobly/cv-analyzer/internal/models"
	"jobly/cv-analyzer/internal/scoring"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

var analysisColumns = []string{
	"id", "cv_hash", "user_id", "score_total", "format_structure", "contenu_textuel",
	"lisibilite", "optimisation_mots_cles", "points_forts", "points_amelioration",
	"recommandations", "details", "analyzed_at",
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func addAnalysisRow(rows *sqlmock.Rows, hash, userID string, total int, analyzedAt time.Time) *sqlmock.Rows {
	return rows.AddRow(
		uuid.New().String(), hash, userID, total, 20, 20, 20, total-60,
		[]byte(`["Excellent structure and format"]`),
		[]byte(`["Keep up the good work"]`),
		[]byte(`["Excellent CV, well optimized for ATS systems"]`),
		[]byte(`{"format":["Appropriate length"],"content":[],"readability":[],"keywords":[],"stats":{"word_count":512,"tech_keywords":9,"action_verbs":6,"sections":4}}`),
		analyzedAt,
	)
}

func TestAnalysisRepository_FindByHash(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	analyzedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "cv_analyses" WHERE cv_hash = \$1`).
		WillReturnRows(addAnalysisRow(sqlmock.NewRows(analysisColumns), hashA, "user-1", 82, analyzedAt))

	analysis, err := repo.FindByHash(context.Background(), hashA)
	require.NoError(t, err)

	assert.Equal(t, hashA, analysis.CVHash)
	assert.Equal(t, "user-1", analysis.UserID)
	assert.Equal(t, 82, analysis.ScoreTotal)
	assert.Equal(t, []string{"Excellent structure and format"}, analysis.PointsForts)
	assert.Equal(t, 512, analysis.Details.Stats.WordCount)
	assert.Equal(t, []string{"Appropriate length"}, analysis.Details.Format)
	assert.True(t, analysis.AnalyzedAt.Equal(analyzedAt))

	report := analysis.Report()
	assert.Equal(t, 82, report.TotalScore)
	assert.Equal(t, 22, report.KeywordScore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_FindByHash_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "cv_analyses" WHERE cv_hash = \$1`).
		WillReturnRows(sqlmock.NewRows(analysisColumns))

	analysis, err := repo.FindByHash(context.Background(), hashA)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
	assert.Nil(t, analysis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_FindByHash_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(`SELECT \* FROM "cv_analyses"`).WillReturnError(dbErr)

	analysis, err := repo.FindByHash(context.Background(), hashA)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrAnalysisNotFound)
	assert.Nil(t, analysis)
}

func TestAnalysisRepository_FindHistoryByUser(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	newer := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	historyRows := sqlmock.NewRows([]string{"id", "cv_hash", "user_id", "cached", "analyzed_at"}).
		AddRow(uuid.New().String(), hashB, "user-2", true, newer).
		AddRow(uuid.New().String(), hashA, "user-2", false, older)

	mock.ExpectQuery(`SELECT \* FROM "cv_analysis_history" WHERE user_id = \$1 ORDER BY analyzed_at DESC`).
		WithArgs("user-2").
		WillReturnRows(historyRows)

	analysisRows := sqlmock.NewRows(analysisColumns)
	addAnalysisRow(analysisRows, hashA, "user-2", 74, older)
	addAnalysisRow(analysisRows, hashB, "user-1", 91, older.Add(-time.Hour))
	mock.ExpectQuery(`SELECT \* FROM "cv_analyses" WHERE "cv_analyses"."cv_hash" IN`).
		WillReturnRows(analysisRows)

	history, err := repo.FindHistoryByUser(context.Background(), "user-2")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, hashB, history[0].CVHash)
	assert.True(t, history[0].Cached)
	assert.Equal(t, 91, history[0].Analysis.ScoreTotal)
	assert.Equal(t, "user-1", history[0].Analysis.UserID)

	assert.Equal(t, hashA, history[1].CVHash)
	assert.False(t, history[1].Cached)
	assert.Equal(t, 74, history[1].Analysis.ScoreTotal)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_FindHistoryByUser_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "cv_analysis_history" WHERE user_id = \$1`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "cv_hash", "user_id", "cached", "analyzed_at"}))

	history, err := repo.FindHistoryByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NoError(t, mock.ExpectationsWereMet())
}

const (
	insertAnalysisSQL = `INSERT INTO "cv_analyses" .+ ON CONFLICT \("cv_hash"\) DO NOTHING RETURNING`
	insertHistorySQL  = `INSERT INTO "cv_analysis_history" .+ RETURNING`
)

func newAnalysisPair(hash, userID string) (*models.CVAnalysis, *models.CVAnalysisHistory) {
	analyzedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	report := &scoring.ScoreReport{
		TotalScore:       70,
		FormatScore:      20,
		ContentScore:     17,
		ReadabilityScore: 18,
		KeywordScore:     15,
		Strengths:        []string{"Excellent structure and format"},
		Improvements:     []string{},
		Recommendations:  []string{"Good CV, a few tweaks will make it excellent"},
	}
	analysis := models.NewCVAnalysis(hash, userID, report, analyzedAt)
	history := &models.CVAnalysisHistory{
		ID:         uuid.New(),
		CVHash:     hash,
		UserID:     userID,
		AnalyzedAt: analyzedAt,
	}
	return analysis, history
}

func returnedRow(id uuid.UUID, at time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "analyzed_at"}).AddRow(id.String(), at)
}

func TestAnalysisRepository_SaveAnalysis_Inserted(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	analysis, history := newAnalysisPair(hashA, "user-1")

	mock.ExpectBegin()
	mock.ExpectQuery(insertAnalysisSQL).WillReturnRows(returnedRow(analysis.ID, analysis.AnalyzedAt))
	mock.ExpectQuery(insertHistorySQL).WillReturnRows(returnedRow(history.ID, history.AnalyzedAt))
	mock.ExpectCommit()

	inserted, err := repo.SaveAnalysis(context.Background(), analysis, history)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_SaveAnalysis_ExistingHashKeepsStoredReport(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	analysis, history := newAnalysisPair(hashA, "user-2")

	// DO NOTHING returns no row; the history row is still written.
	mock.ExpectBegin()
	mock.ExpectQuery(insertAnalysisSQL).WillReturnRows(sqlmock.NewRows([]string{"id", "analyzed_at"}))
	mock.ExpectQuery(insertHistorySQL).WillReturnRows(returnedRow(history.ID, history.AnalyzedAt))
	mock.ExpectCommit()

	inserted, err := repo.SaveAnalysis(context.Background(), analysis, history)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_SaveAnalysis_HistoryFailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	analysis, history := newAnalysisPair(hashB, "user-1")
	fkErr := errors.New("insert or update violates foreign key constraint")

	mock.ExpectBegin()
	mock.ExpectQuery(insertAnalysisSQL).WillReturnRows(returnedRow(analysis.ID, analysis.AnalyzedAt))
	mock.ExpectQuery(insertHistorySQL).WillReturnError(fkErr)
	mock.ExpectRollback()

	inserted, err := repo.SaveAnalysis(context.Background(), analysis, history)
	require.Error(t, err)
	assert.ErrorIs(t, err, fkErr)
	assert.Contains(t, err.Error(), "failed to create history")
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_SaveAnalysis_AnalysisFailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalysisRepository(db)
	analysis, history := newAnalysisPair(hashB, "user-1")

	mock.ExpectBegin()
	mock.ExpectQuery(insertAnalysisSQL).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	inserted, err := repo.SaveAnalysis(context.Background(), analysis, history)
	assert.ErrorContains(t, err, "failed to create analysis")
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_AddHistory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnalysisRepository(db)
		_, history := newAnalysisPair(hashA, "user-3")
		history.Cached = true

		mock.ExpectBegin()
		mock.ExpectQuery(insertHistorySQL).WillReturnRows(returnedRow(history.ID, history.AnalyzedAt))
		mock.ExpectCommit()

		require.NoError(t, repo.AddHistory(context.Background(), history))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnalysisRepository(db)
		_, history := newAnalysisPair(hashA, "user-3")

		mock.ExpectBegin()
		mock.ExpectQuery(insertHistorySQL).WillReturnError(errors.New("connection refused"))
		mock.ExpectRollback()

		err := repo.AddHistory(context.Background(), history)
		assert.ErrorContains(t, err, "failed to create history")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
