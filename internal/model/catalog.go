package model

import "time"

// Catalog is the static questionnaire content: questions and style categories
type Catalog struct {
	Version   string          `json:"version" yaml:"version" bson:"_id"`
	Questions []Question      `json:"questions" yaml:"questions" bson:"questions"`
	Styles    []StyleCategory `json:"styles" yaml:"styles" bson:"styles"`
	UpdatedAt time.Time       `json:"updatedAt" yaml:"-" bson:"updatedAt"`
}
