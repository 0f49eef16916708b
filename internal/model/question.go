package model

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PhotoUploadID is the id of the photo-upload pseudo-question
const PhotoUploadID = "photo-upload"

// GenderQuestionID routes the questionnaire and never scores
const GenderQuestionID = "gender"

// Presentation tells a client how to render a question
type Presentation string

const (
	PresentationText        Presentation = "text"
	PresentationPhotoGrid   Presentation = "photo-grid"
	PresentationPhotoUpload Presentation = "photo-upload"
)

// Option is one selectable answer of a question
type Option struct {
	ID    string `json:"id" yaml:"id" bson:"id"`
	Text  string `json:"text" yaml:"text" bson:"text"`
	Image string `json:"image,omitempty" yaml:"image,omitempty" bson:"image,omitempty"`
}

// Question is a catalog entry, optionally gated on a prior answer
type Question struct {
	ID        string     `json:"id" yaml:"id" bson:"id"`
	Text      string     `json:"text" yaml:"text" bson:"text"`
	Options   []Option   `json:"options" yaml:"options" bson:"options"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty" bson:"condition,omitempty"`
}

// Presentation returns photo-grid when every option carries an image
func (q *Question) Presentation() Presentation {
	if q.ID == PhotoUploadID {
		return PresentationPhotoUpload
	}
	if len(q.Options) == 0 {
		return PresentationText
	}
	for _, o := range q.Options {
		if o.Image == "" {
			return PresentationText
		}
	}
	return PresentationPhotoGrid
}

// HasOption reports whether optionID is declared on the question
func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// PhotoUploadQuestion is the pseudo-question injected at the start or end of the flow
func PhotoUploadQuestion() Question {
	return Question{ID: PhotoUploadID}
}

// Condition gates a question on the answer to another question.
// On the wire OptionIDs is either a single id or a list of acceptable ids.
type Condition struct {
	QuestionID string   `json:"questionId" yaml:"questionId" bson:"questionId"`
	OptionIDs  []string `json:"-" yaml:"-" bson:"optionIds"`
}

// Accepts reports whether optionID satisfies the condition
func (c *Condition) Accepts(optionID string) bool {
	for _, id := range c.OptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

type conditionWire struct {
	QuestionID string          `json:"questionId"`
	OptionID   json.RawMessage `json:"optionId"`
}

// MarshalJSON writes a single id as a string and several as a list
func (c Condition) MarshalJSON() ([]byte, error) {
	var optionID interface{} = c.OptionIDs
	if len(c.OptionIDs) == 1 {
		optionID = c.OptionIDs[0]
	}
	return json.Marshal(map[string]interface{}{
		"questionId": c.QuestionID,
		"optionId":   optionID,
	})
}

// UnmarshalJSON accepts optionId as a string or a list of strings
func (c *Condition) UnmarshalJSON(data []byte) error {
	var w conditionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.QuestionID = w.QuestionID
	c.OptionIDs = nil

	var single string
	if err := json.Unmarshal(w.OptionID, &single); err == nil {
		c.OptionIDs = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(w.OptionID, &many); err != nil {
		return fmt.Errorf("condition optionId must be a string or list of strings: %w", err)
	}
	c.OptionIDs = many
	return nil
}

// UnmarshalYAML accepts optionId as a scalar or a sequence
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var w struct {
		QuestionID string    `yaml:"questionId"`
		OptionID   yaml.Node `yaml:"optionId"`
	}
	if err := node.Decode(&w); err != nil {
		return err
	}
	c.QuestionID = w.QuestionID
	c.OptionIDs = nil

	switch w.OptionID.Kind {
	case yaml.ScalarNode:
		c.OptionIDs = []string{w.OptionID.Value}
	case yaml.SequenceNode:
		if err := w.OptionID.Decode(&c.OptionIDs); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: condition optionId must be a string or list", node.Line)
	}
	return nil
}
