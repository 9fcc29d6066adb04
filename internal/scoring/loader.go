package scoring

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

const vocabularySchema = `{
  "type": "object",
  "properties": {
    "tech_keywords":       {"$ref": "#/definitions/terms"},
    "action_verbs":        {"$ref": "#/definitions/terms"},
    "sections":            {"$ref": "#/definitions/terms"},
    "certification_terms": {"$ref": "#/definitions/terms"},
    "quantity_units":      {"$ref": "#/definitions/terms"},
    "problematic_glyphs":  {"type": "string", "minLength": 1},
    "phone_pattern":       {"type": "string", "minLength": 1}
  },
  "additionalProperties": false,
  "definitions": {
    "terms": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

// LoadVocabulary reads a YAML, JSON or TOML vocabulary file. Keys missing from
// the file keep their DefaultVocabulary value; an empty path returns the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	if err := validateVocabularyDocument(v.AllSettings()); err != nil {
		return Vocabulary{}, err
	}

	var override Vocabulary
	if err := v.Unmarshal(&override); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to decode vocabulary file: %w", err)
	}

	vocab := mergeVocabulary(DefaultVocabulary(), override)
	if err := vocab.Validate(); err != nil {
		return Vocabulary{}, err
	}

	return vocab, nil
}

func validateVocabularyDocument(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(vocabularySchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("vocabulary validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("invalid vocabulary file: %s", strings.Join(errs, "; "))
	}

	return nil
}

func mergeVocabulary(base, override Vocabulary) Vocabulary {
	if len(override.TechKeywords) > 0 {
		base.TechKeywords = override.TechKeywords
	}
	if len(override.ActionVerbs) > 0 {
		base.ActionVerbs = override.ActionVerbs
	}
	if len(override.Sections) > 0 {
		base.Sections = override.Sections
	}
	if len(override.CertificationTerms) > 0 {
		base.CertificationTerms = override.CertificationTerms
	}
	if len(override.QuantityUnits) > 0 {
		base.QuantityUnits = override.QuantityUnits
	}
	if override.ProblematicGlyphs != "" {
		base.ProblematicGlyphs = override.ProblematicGlyphs
	}
	if override.PhonePattern != "" {
		base.PhonePattern = override.PhonePattern
	}
	return base
}
