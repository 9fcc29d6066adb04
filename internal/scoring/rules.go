package scoring

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Each category is worth at most 25 points.
const (
	lengthPoints        = 8.0
	sectionPointsEach   = 2.0
	sectionPointsMax    = 10.0
	cleanGlyphPoints    = 4.0
	datePoints          = 3.0
	techPointsEach      = 1.5
	techPointsMax       = 10.0
	verbPointsEach      = 1.0
	verbPointsMax       = 8.0
	fullContactPoints   = 7.0
	partialContactPoint = 3.0
	lineLengthPoints    = 8.0
	titlePoints         = 10.0
	linearLayoutPoints  = 7.0
	densityOptimal      = 10.0
	densityAcceptable   = 5.0
	quantifiedPoints    = 8.0
	certificationPoints = 7.0

	minWords          = 300
	maxWords          = 2000
	maxMeanLineLength = 80.0
	minTitles         = 2
	shortLineLength   = 10
	maxShortLineShare = 0.3
	minQuantified     = 3
	minDates          = 2
)

type categoryResult struct {
	points float64
	notes  []string
}

func (c *categoryResult) award(points float64, note string) {
	c.points += points
	if note != "" {
		c.notes = append(c.notes, note)
	}
}

func newCategory() categoryResult {
	return categoryResult{notes: []string{}}
}

func (e *Engine) scoreFormat(doc *document) categoryResult {
	res := newCategory()

	switch {
	case doc.wordCount >= minWords && doc.wordCount <= maxWords:
		res.award(lengthPoints, "Appropriate length")
	case doc.wordCount < minWords:
		res.award(0, fmt.Sprintf("CV too short (< %d words)", minWords))
	default:
		res.award(0, fmt.Sprintf("CV too long (> %d words)", maxWords))
	}

	sections := len(doc.sectionsFound)
	res.award(min(float64(sections)*sectionPointsEach, sectionPointsMax), "")
	if sections >= 3 {
		res.notes = append(res.notes, fmt.Sprintf("%d sections identified", sections))
	}

	if !strings.ContainsAny(doc.raw, e.glyphs) {
		res.award(cleanGlyphPoints, "No problematic special characters")
	}

	if len(yearPattern.FindAllStringIndex(doc.raw, -1)) >= minDates {
		res.award(datePoints, "Dates formatted correctly")
	}

	return res
}

func (e *Engine) scoreContent(doc *document) categoryResult {
	res := newCategory()

	tech := len(doc.techFound)
	res.award(min(float64(tech)*techPointsEach, techPointsMax), "")
	if tech > 0 {
		res.notes = append(res.notes, fmt.Sprintf("%d technical skills detected", tech))
	}

	verbs := len(doc.verbsFound)
	res.award(min(float64(verbs)*verbPointsEach, verbPointsMax), "")
	if verbs > 0 {
		res.notes = append(res.notes, fmt.Sprintf("%d action verbs used", verbs))
	}

	switch {
	case doc.hasEmail && doc.hasPhone:
		res.award(fullContactPoints, "Complete contact details")
	case doc.hasEmail || doc.hasPhone:
		res.award(partialContactPoint, "Partial contact details")
	}

	return res
}

func (e *Engine) scoreReadability(doc *document) categoryResult {
	res := newCategory()
	if len(doc.lines) == 0 {
		return res
	}

	var totalLength, titles, short int
	for _, line := range doc.lines {
		totalLength += utf8.RuneCountInString(line)

		trimmed := strings.TrimSpace(line)
		if titlePattern.MatchString(trimmed) {
			titles++
		}
		if n := utf8.RuneCountInString(trimmed); n > 0 && n < shortLineLength {
			short++
		}
	}

	if float64(totalLength)/float64(len(doc.lines)) < maxMeanLineLength {
		res.award(lineLengthPoints, "Lines of appropriate length")
	}

	if titles >= minTitles {
		res.award(titlePoints, "Clear hierarchy with titles")
	}

	if float64(short) < float64(len(doc.lines))*maxShortLineShare {
		res.award(linearLayoutPoints, "Linear structure (no columns)")
	}

	return res
}

func (e *Engine) scoreKeywords(doc *document) categoryResult {
	res := newCategory()

	density := 0.0
	if doc.wordCount > 0 {
		density = float64(len(doc.techFound)) / float64(doc.wordCount) * 100
	}
	switch {
	case density >= 1 && density <= 5:
		res.award(densityOptimal, "Optimal keyword density")
	case density > 0:
		res.award(densityAcceptable, "Acceptable keyword density")
	}

	if len(e.quantified.FindAllStringIndex(doc.raw, -1)) >= minQuantified {
		res.award(quantifiedPoints, "Quantified results present")
	}

	for _, term := range e.certificationTerms {
		if strings.Contains(doc.lower, term) {
			res.award(certificationPoints, "Degrees or certifications mentioned")
			break
		}
	}

	return res
}
