package model

import "time"

// NotStartedIndex is the CurrentIndex of a session that has not started
const NotStartedIndex = -1

// QuizState is the questionnaire position and collected inputs of one session
type QuizState struct {
	Answers          []UserAnswer  `json:"answers" bson:"answers"`
	CurrentIndex     int           `json:"currentIndex" bson:"currentIndex"`
	PhotoResults     []PhotoResult `json:"photoResults" bson:"photoResults"`
	PhotoUploadFirst bool          `json:"photoUploadFirst" bson:"photoUploadFirst"`
	Finished         bool          `json:"finished" bson:"finished"`
}

// NewQuizState returns the pre-start state
func NewQuizState() QuizState {
	return QuizState{
		Answers:      []UserAnswer{},
		CurrentIndex: NotStartedIndex,
		PhotoResults: []PhotoResult{},
	}
}

// Session is one user's run through the questionnaire and photo analyses
type Session struct {
	ID        string                       `json:"id" bson:"_id"`
	Quiz      QuizState                    `json:"quiz" bson:"quiz"`
	Color     map[ColorStep]*ColorAnalysis `json:"color,omitempty" bson:"color,omitempty"`
	CreatedAt time.Time                    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time                    `json:"updatedAt" bson:"updatedAt"`
}

// SessionView is what a client needs to render the current step
type SessionView struct {
	SessionID       string                       `json:"sessionId"`
	Started         bool                         `json:"started"`
	Finished        bool                         `json:"finished"`
	CurrentIndex    int                          `json:"currentIndex"`
	Step            int                          `json:"step"`
	Total           int                          `json:"total"`
	Question        *Question                    `json:"question,omitempty"`
	Presentation    Presentation                 `json:"presentation,omitempty"`
	CurrentAnswer   string                       `json:"currentAnswer,omitempty"`
	IsAnswered      bool                         `json:"isAnswered"`
	IsFirst         bool                         `json:"isFirst"`
	IsLast          bool                         `json:"isLast"`
	ActiveQuestions []string                     `json:"activeQuestions"`
	PhotoResults    []PhotoResult                `json:"photoResults"`
	Color           map[ColorStep]*ColorAnalysis `json:"color,omitempty"`
}
