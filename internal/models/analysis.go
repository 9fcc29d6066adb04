package models

import (
	"time"

	"github.com/google/uuid"

	"jobly/cv-analyzer/internal/scoring"
)

// CVAnalysis is one scored report, keyed by the SHA-256 of the uploaded bytes.
// UserID is the first submitter; later submitters of identical bytes only get
// a CVAnalysisHistory row pointing at this record.
type CVAnalysis struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"analysis_id"`
	CVHash               string          `gorm:"type:char(64);uniqueIndex;not null" json:"cv_hash"`
	UserID               string          `gorm:"type:text;not null;index" json:"user_id"`
	ScoreTotal           int             `gorm:"not null" json:"score_total"`
	FormatStructure      int             `gorm:"not null" json:"format_structure"`
	ContenuTextuel       int             `gorm:"not null" json:"contenu_textuel"`
	Lisibilite           int             `gorm:"not null" json:"lisibilite"`
	OptimisationMotsCles int             `gorm:"not null" json:"optimisation_mots_cles"`
	PointsForts          []string        `gorm:"type:jsonb;serializer:json" json:"points_forts"`
	PointsAmelioration   []string        `gorm:"type:jsonb;serializer:json" json:"points_amelioration"`
	Recommandations      []string        `gorm:"type:jsonb;serializer:json" json:"recommandations"`
	Details              scoring.Details `gorm:"type:jsonb;serializer:json" json:"details"`
	AnalyzedAt           time.Time       `gorm:"type:timestamp;not null;default:now()" json:"analyzed_at"`
}

func (CVAnalysis) TableName() string {
	return "cv_analyses"
}

// NewCVAnalysis flattens a report into its persisted form.
func NewCVAnalysis(hash, userID string, report *scoring.ScoreReport, analyzedAt time.Time) *CVAnalysis {
	return &CVAnalysis{
		ID:                   uuid.New(),
		CVHash:               hash,
		UserID:               userID,
		ScoreTotal:           report.TotalScore,
		FormatStructure:      report.FormatScore,
		ContenuTextuel:       report.ContentScore,
		Lisibilite:           report.ReadabilityScore,
		OptimisationMotsCles: report.KeywordScore,
		PointsForts:          report.Strengths,
		PointsAmelioration:   report.Improvements,
		Recommandations:      report.Recommendations,
		Details:              report.Details,
		AnalyzedAt:           analyzedAt,
	}
}

// Report rebuilds the scoring report from the persisted columns.
func (a *CVAnalysis) Report() *scoring.ScoreReport {
	return &scoring.ScoreReport{
		TotalScore:       a.ScoreTotal,
		FormatScore:      a.FormatStructure,
		ContentScore:     a.ContenuTextuel,
		ReadabilityScore: a.Lisibilite,
		KeywordScore:     a.OptimisationMotsCles,
		Strengths:        a.PointsForts,
		Improvements:     a.PointsAmelioration,
		Recommendations:  a.Recommandations,
		Details:          a.Details,
	}
}

// CVAnalysisHistory records that a user submitted a document, whether it was
// scored for them or served from the cache.
type CVAnalysisHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CVHash     string    `gorm:"type:char(64);not null;index" json:"cv_hash"`
	UserID     string    `gorm:"type:text;not null;index:idx_history_user_analyzed,priority:1" json:"user_id"`
	Cached     bool      `gorm:"not null;default:false" json:"cached"`
	AnalyzedAt time.Time `gorm:"type:timestamp;not null;default:now();index:idx_history_user_analyzed,priority:2" json:"analyzed_at"`

	// Relations
	Analysis CVAnalysis `gorm:"foreignKey:CVHash;references:CVHash;constraint:OnDelete:CASCADE" json:"-"`
}

func (CVAnalysisHistory) TableName() string {
	return "cv_analysis_history"
}
