package scoring

// ScoreReport is the immutable result of analyzing one CV text.
type ScoreReport struct {
	TotalScore       int      `json:"score_total"`
	FormatScore      int      `json:"format_structure"`
	ContentScore     int      `json:"contenu_textuel"`
	ReadabilityScore int      `json:"lisibilite"`
	KeywordScore     int      `json:"optimisation_mots_cles"`
	Strengths        []string `json:"points_forts"`
	Improvements     []string `json:"points_amelioration"`
	Recommendations  []string `json:"recommandations"`
	Details          Details  `json:"details"`
}

// Details carries the per-category diagnostics behind each sub-score.
type Details struct {
	Format      []string `json:"format"`
	Content     []string `json:"content"`
	Readability []string `json:"readability"`
	Keywords    []string `json:"keywords"`
	Stats       Stats    `json:"stats"`
}

type Stats struct {
	WordCount    int `json:"word_count"`
	TechKeywords int `json:"tech_keywords"`
	ActionVerbs  int `json:"action_verbs"`
	Sections     int `json:"sections"`
}

// Tier buckets a total score into its recommendation bracket.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// TierFor returns the recommendation bracket of a total score.
func TierFor(total int) Tier {
	switch {
	case total >= 80:
		return TierExcellent
	case total >= 60:
		return TierGood
	case total >= 40:
		return TierFair
	default:
		return TierPoor
	}
}
