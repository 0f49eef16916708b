package model

// StyleCategory is a scoring bucket. Quiz answers match it by ID,
// photo classifications match it by Name.
type StyleCategory struct {
	ID          string `json:"id" yaml:"id" bson:"id"`
	Name        string `json:"name" yaml:"name" bson:"name"`
	Description string `json:"description" yaml:"description" bson:"description"`
	Score       int    `json:"score" yaml:"-" bson:"score"`
}

// PhotoResult is the style classification of one uploaded photo
type PhotoResult struct {
	FileName string   `json:"fileName" bson:"fileName"`
	Size     int64    `json:"size" bson:"size"`
	Result   string   `json:"result" bson:"result"`
	Tags     []string `json:"tags,omitempty" bson:"tags,omitempty"`
}
