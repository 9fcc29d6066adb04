package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

// Vocabulary holds every word list and pattern the rules match against.
// All terms are matched case-insensitively as substrings of the lower-cased text.
type Vocabulary struct {
	TechKeywords       []string `mapstructure:"tech_keywords" json:"tech_keywords"`
	ActionVerbs        []string `mapstructure:"action_verbs" json:"action_verbs"`
	Sections           []string `mapstructure:"sections" json:"sections"`
	CertificationTerms []string `mapstructure:"certification_terms" json:"certification_terms"`
	QuantityUnits      []string `mapstructure:"quantity_units" json:"quantity_units"`
	ProblematicGlyphs  string   `mapstructure:"problematic_glyphs" json:"problematic_glyphs"`
	PhonePattern       string   `mapstructure:"phone_pattern" json:"phone_pattern"`
}

// DefaultVocabulary returns the built-in bilingual (English/French) rule data.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		TechKeywords: []string{
			"javascript", "python", "java", "react", "node", "sql", "docker", "kubernetes",
			"aws", "azure", "git", "agile", "scrum", "api", "rest", "graphql", "typescript",
			"html", "css", "angular", "vue", "mongodb", "postgresql", "mysql", "redis",
			"ci/cd", "devops", "linux", "bash", "terraform", "jenkins", "gitlab",
		},
		ActionVerbs: []string{
			"developed", "designed", "created", "managed", "spearheaded", "optimized", "improved",
			"implemented", "deployed", "maintained", "coordinated", "analyzed", "resolved",
			"automated", "migrated", "integrated", "tested", "documented", "trained",
			"développé", "conçu", "créé", "géré", "dirigé", "optimisé", "amélioré",
			"implémenté", "déployé", "maintenu", "coordonné", "analysé", "résolu",
			"automatisé", "migré", "intégré", "testé", "documenté", "formé",
		},
		Sections: []string{
			"experience", "education", "skills", "degree", "projects", "certifications", "languages",
			"expérience", "formation", "compétence", "diplôme", "éducation", "projet", "langue",
		},
		CertificationTerms: []string{
			"certification", "certificate", "degree", "diploma", "license", "master", "bachelor",
			"diplôme", "licence", "baccalauréat",
		},
		QuantityUnits: []string{
			"years", "months", "projects", "users", "clients",
			"ans", "mois", "projets", "utilisateurs",
		},
		ProblematicGlyphs: "★●◆■▪►•",
		PhonePattern:      `(\+\d{1,3}[\s.-]?|0)[1-9]([\s.-]?\d{2}){4}`,
	}
}

// Validate reports the first structural problem with the vocabulary.
func (v Vocabulary) Validate() error {
	lists := map[string][]string{
		"tech_keywords":       v.TechKeywords,
		"action_verbs":        v.ActionVerbs,
		"sections":            v.Sections,
		"certification_terms": v.CertificationTerms,
		"quantity_units":      v.QuantityUnits,
	}
	for _, name := range []string{"tech_keywords", "action_verbs", "sections", "certification_terms", "quantity_units"} {
		if len(normalizeTerms(lists[name])) == 0 {
			return fmt.Errorf("vocabulary %s must not be empty", name)
		}
	}

	if strings.TrimSpace(v.ProblematicGlyphs) == "" {
		return fmt.Errorf("vocabulary problematic_glyphs must not be empty")
	}

	if v.PhonePattern == "" {
		return fmt.Errorf("vocabulary phone_pattern must not be empty")
	}
	if _, err := regexp.Compile(v.PhonePattern); err != nil {
		return fmt.Errorf("invalid phone_pattern %q: %w", v.PhonePattern, err)
	}

	return nil
}

// normalizeTerms lower-cases, trims and de-duplicates terms while keeping their first-seen order.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
