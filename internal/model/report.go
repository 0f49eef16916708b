package model

import "time"

// RankedStyle is one category in a report with its share of the total
type RankedStyle struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Score       int    `json:"score" bson:"score"`
	Percentage  int    `json:"percentage" bson:"percentage"`
}

// Report is the final personalized result of a session
type Report struct {
	SessionID    string          `json:"sessionId" bson:"sessionId"`
	Styles       []StyleCategory `json:"styles" bson:"styles"`
	Top          []RankedStyle   `json:"top" bson:"top"`
	TotalScore   int             `json:"totalScore" bson:"totalScore"`
	PhotoResults []PhotoResult   `json:"photoResults" bson:"photoResults"`
	CreatedAt    time.Time       `json:"createdAt" bson:"createdAt"`
}

// StyleStat is the global popularity of a style across reports
type StyleStat struct {
	StyleID string `json:"styleId"`
	Name    string `json:"name,omitempty"`
	Count   int    `json:"count"`
	Rank    int    `json:"rank"`
}
