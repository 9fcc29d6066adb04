package scoring

import "fmt"

const (
	strongCategory = 20
	weakCategory   = 15

	manyTechKeywords = 10
	fewTechKeywords  = 5
	manyActionVerbs  = 8

	NoStrengthSentinel    = "No major strength detected"
	NoImprovementSentinel = "Keep up the good work"
)

// categoryPoints are the unrounded category totals. Feedback thresholds
// compare these, so 19.5 points is not yet a strength even though the report
// shows 20.
type categoryPoints struct {
	format      float64
	content     float64
	readability float64
	keywords    float64
}

func strengths(points categoryPoints, doc *document) []string {
	out := []string{}
	if points.format >= strongCategory {
		out = append(out, "Excellent structure and format")
	}
	if points.content >= strongCategory {
		out = append(out, "Rich and relevant content")
	}
	if points.readability >= strongCategory {
		out = append(out, "Very good readability")
	}
	if points.keywords >= strongCategory {
		out = append(out, "Effective keyword optimization")
	}
	if len(doc.techFound) >= manyTechKeywords {
		out = append(out, fmt.Sprintf("%d technical skills identified", len(doc.techFound)))
	}
	if len(doc.verbsFound) >= manyActionVerbs {
		out = append(out, "Good use of action verbs")
	}

	if len(out) == 0 {
		return []string{NoStrengthSentinel}
	}
	return out
}

func improvements(points categoryPoints, doc *document) []string {
	out := []string{}
	if points.format < weakCategory {
		out = append(out, "Improve the structure (add clear sections)")
	}
	if points.content < weakCategory {
		out = append(out, "Enrich the content with more industry keywords")
	}
	if points.readability < weakCategory {
		out = append(out, "Simplify the layout (avoid columns and tables)")
	}
	if points.keywords < weakCategory {
		out = append(out, "Add quantified results (figures, %)")
	}
	if len(doc.techFound) < fewTechKeywords {
		out = append(out, "List more technical skills")
	}
	if !doc.hasEmail || !doc.hasPhone {
		out = append(out, "Add complete contact details (email + phone)")
	}

	if len(out) == 0 {
		return []string{NoImprovementSentinel}
	}
	return out
}

func recommendations(total int) []string {
	switch TierFor(total) {
	case TierExcellent:
		return []string{
			"Excellent CV! Compatible with most ATS",
			"Keep updating your skills regularly",
		}
	case TierGood:
		return []string{
			"Good CV, a few adjustments recommended",
			"Add more quantified results to strengthen the impact",
		}
	case TierFair:
		return []string{
			"Acceptable CV but it needs improvements",
			"Restructure with clear sections (Experience, Education, Skills)",
			"Use more action verbs and industry keywords",
		}
	default:
		return []string{
			"CV needs a major rework",
			"Use a simple, linear layout (no columns)",
			"Add clear sections and relevant keywords",
		}
	}
}
