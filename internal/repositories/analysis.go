package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobly/cv-analyzer/internal/models"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

type AnalysisRepository interface {
	FindByHash(ctx context.Context, hash string) (*models.CVAnalysis, error)
	SaveAnalysis(ctx context.Context, analysis *models.CVAnalysis, history *models.CVAnalysisHistory) (bool, error)
	AddHistory(ctx context.Context, history *models.CVAnalysisHistory) error
	FindHistoryByUser(ctx context.Context, userID string) ([]models.CVAnalysisHistory, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) FindByHash(ctx context.Context, hash string) (*models.CVAnalysis, error) {
	var analysis models.CVAnalysis
	if err := r.db.WithContext(ctx).Where("cv_hash = ?", hash).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// SaveAnalysis inserts the report and its history row in one transaction.
// A report already stored under the same hash is kept as is, so concurrent
// first submissions of identical bytes both succeed. The returned bool is
// false when the stored report was not replaced by this one.
func (r *analysisRepository) SaveAnalysis(ctx context.Context, analysis *models.CVAnalysis, history *models.CVAnalysisHistory) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cv_hash"}},
			DoNothing: true,
		}).Create(analysis)
		if result.Error != nil {
			return fmt.Errorf("failed to create analysis: %w", result.Error)
		}
		inserted = result.RowsAffected > 0

		if history != nil {
			if err := tx.Omit(clause.Associations).Create(history).Error; err != nil {
				return fmt.Errorf("failed to create history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to save analysis: %w", err)
	}
	return inserted, nil
}

func (r *analysisRepository) AddHistory(ctx context.Context, history *models.CVAnalysisHistory) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(history).Error; err != nil {
		return fmt.Errorf("failed to create history: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindHistoryByUser(ctx context.Context, userID string) ([]models.CVAnalysisHistory, error) {
	var history []models.CVAnalysisHistory
	err := r.db.WithContext(ctx).
		Preload("Analysis").
		Where("user_id = ?", userID).
		Order("analyzed_at DESC").
		Find(&history).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find history: %w", err)
	}

	return history, nil
}
