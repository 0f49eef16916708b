package model

// PhotoUploadedOption marks the photo-upload pseudo-question as answered
const PhotoUploadedOption = "uploaded"

// UserAnswer is the selected option for one question.
// A session holds at most one answer per QuestionID.
type UserAnswer struct {
	QuestionID string `json:"questionId" bson:"questionId"`
	OptionID   string `json:"optionId" bson:"optionId"`
}

// FindAnswer returns the answer recorded for questionID, if any
func FindAnswer(answers []UserAnswer, questionID string) (UserAnswer, bool) {
	for _, a := range answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return UserAnswer{}, false
}
