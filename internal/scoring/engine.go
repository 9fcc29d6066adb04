// Package scoring implements the deterministic, rule-based ATS compatibility
// scorer. Every point in a ScoreReport can be traced back to one named rule;
// the same text always yields the same report.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinTextLength is the minimum number of characters (after trimming) a text
// needs before it is worth scoring.
const MinTextLength = 50

// ErrInsufficientText is returned when the text is too sparse to score.
var ErrInsufficientText = errors.New("insufficient text to analyze")

var (
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	titlePattern = regexp.MustCompile(`^[\p{Lu}\s]{3,}$`)
)

// Engine scores CV texts against an injected Vocabulary. It holds no mutable
// state after construction and is safe for concurrent use.
type Engine struct {
	techKeywords       []string
	actionVerbs        []string
	sections           []string
	certificationTerms []string
	glyphs             string
	phone              *regexp.Regexp
	quantified         *regexp.Regexp
}

// NewEngine validates vocab and precompiles its patterns. The engine is
// immutable afterwards and safe for concurrent use.
func NewEngine(vocab Vocabulary) (*Engine, error) {
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build scoring engine: %w", err)
	}

	units := normalizeTerms(vocab.QuantityUnits)
	quoted := make([]string, len(units))
	for i, unit := range units {
		quoted[i] = regexp.QuoteMeta(unit)
	}

	quantified, err := regexp.Compile(`(?i)\d+%|\d+\s*(?:` + strings.Join(quoted, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile quantified pattern: %w", err)
	}

	return &Engine{
		techKeywords:       normalizeTerms(vocab.TechKeywords),
		actionVerbs:        normalizeTerms(vocab.ActionVerbs),
		sections:           normalizeTerms(vocab.Sections),
		certificationTerms: normalizeTerms(vocab.CertificationTerms),
		glyphs:             vocab.ProblematicGlyphs,
		phone:              regexp.MustCompile(vocab.PhonePattern),
		quantified:         quantified,
	}, nil
}

// document is the read-only view of a text that every rule works from.
type document struct {
	raw       string
	lower     string
	lines     []string
	wordCount int

	techFound     []string
	verbsFound    []string
	sectionsFound []string
	hasEmail      bool
	hasPhone      bool
}

func (e *Engine) newDocument(text string) *document {
	lower := strings.ToLower(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	return &document{
		raw:           text,
		lower:         lower,
		lines:         lines,
		wordCount:     len(strings.Fields(text)),
		techFound:     matchTerms(lower, e.techKeywords),
		verbsFound:    matchTerms(lower, e.actionVerbs),
		sectionsFound: matchTerms(lower, e.sections),
		hasEmail:      strings.Contains(text, "@"),
		hasPhone:      e.phone.MatchString(text),
	}
}

// matchTerms returns, in vocabulary order, the terms that occur in lower.
func matchTerms(lower string, terms []string) []string {
	found := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// Analyze scores text and builds the full report.
func (e *Engine) Analyze(text string) (*ScoreReport, error) {
	text = strings.ToValidUTF8(text, "�")

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinTextLength || len(strings.Fields(trimmed)) == 0 {
		return nil, ErrInsufficientText
	}

	doc := e.newDocument(text)

	format := e.scoreFormat(doc)
	content := e.scoreContent(doc)
	readability := e.scoreReadability(doc)
	keywords := e.scoreKeywords(doc)

	report := &ScoreReport{
		FormatScore:      roundPoints(format.points),
		ContentScore:     roundPoints(content.points),
		ReadabilityScore: roundPoints(readability.points),
		KeywordScore:     roundPoints(keywords.points),
		Details: Details{
			Format:      format.notes,
			Content:     content.notes,
			Readability: readability.notes,
			Keywords:    keywords.notes,
			Stats: Stats{
				WordCount:    doc.wordCount,
				TechKeywords: len(doc.techFound),
				ActionVerbs:  len(doc.verbsFound),
				Sections:     len(doc.sectionsFound),
			},
		},
	}

	total := report.FormatScore + report.ContentScore + report.ReadabilityScore + report.KeywordScore
	report.TotalScore = max(0, min(total, 100))

	points := categoryPoints{
		format:      format.points,
		content:     content.points,
		readability: readability.points,
		keywords:    keywords.points,
	}
	report.Strengths = strengths(points, doc)
	report.Improvements = improvements(points, doc)
	report.Recommendations = recommendations(report.TotalScore)

	return report, nil
}

func roundPoints(points float64) int {
	return int(math.Round(points))
}
