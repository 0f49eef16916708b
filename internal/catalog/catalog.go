// Package catalog loads and validates questionnaire content.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"stylequiz/internal/model"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog wraps every validation failure
var ErrInvalidCatalog = errors.New("invalid catalog")

// Default returns the embedded catalog
func Default() (*model.Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and validates a YAML catalog from disk
func LoadFile(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("[Catalog] Loaded %s: %d questions, %d styles", path, len(c.Questions), len(c.Styles))
	return c, nil
}

// Parse decodes YAML and validates the result
func Parse(data []byte) (*model.Catalog, error) {
	var c model.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if c.Version == "" {
		c.Version = "default"
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects catalogs the engine would silently misbehave on:
// duplicate ids, empty option lists, and conditions that point at a
// question or option that does not exist.
func Validate(c *model.Catalog) error {
	var problems []string

	if len(c.Styles) == 0 {
		problems = append(problems, "no style categories")
	}
	styleIDs := make(map[string]bool)
	styleNames := make(map[string]bool)
	for _, s := range c.Styles {
		if s.ID == "" || s.Name == "" {
			problems = append(problems, "style category needs id and name")
			continue
		}
		if styleIDs[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate style id %q", s.ID))
		}
		if styleNames[s.Name] {
			problems = append(problems, fmt.Sprintf("duplicate style name %q", s.Name))
		}
		styleIDs[s.ID] = true
		styleNames[s.Name] = true
	}

	byID := make(map[string]*model.Question, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		switch {
		case q.ID == "":
			problems = append(problems, fmt.Sprintf("question %d has no id", i))
			continue
		case q.ID == model.PhotoUploadID:
			problems = append(problems, fmt.Sprintf("question id %q is reserved", q.ID))
		case byID[q.ID] != nil:
			problems = append(problems, fmt.Sprintf("duplicate question id %q", q.ID))
		}
		if len(q.Options) == 0 {
			problems = append(problems, fmt.Sprintf("question %q has no options", q.ID))
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if seen[o.ID] {
				problems = append(problems, fmt.Sprintf("question %q repeats option %q", q.ID, o.ID))
			}
			seen[o.ID] = true
		}
		byID[q.ID] = q
	}

	for _, q := range c.Questions {
		if q.Condition == nil {
			continue
		}
		ref, ok := byID[q.Condition.QuestionID]
		if !ok {
			problems = append(problems, fmt.Sprintf("question %q depends on unknown question %q", q.ID, q.Condition.QuestionID))
			continue
		}
		if ref.ID == q.ID {
			problems = append(problems, fmt.Sprintf("question %q depends on itself", q.ID))
		}
		if len(q.Condition.OptionIDs) == 0 {
			problems = append(problems, fmt.Sprintf("question %q has a condition without options", q.ID))
		}
		for _, opt := range q.Condition.OptionIDs {
			if !ref.HasOption(opt) {
				problems = append(problems, fmt.Sprintf("question %q depends on unknown option %q of %q", q.ID, opt, ref.ID))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}
