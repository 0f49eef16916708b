// Package quiz implements the branching questionnaire and its score aggregation.
// Every operation is a pure function of the catalog and the session's QuizState.
package quiz

import (
	"stylequiz/internal/model"
)

// PhotoPlacement says where the photo-upload pseudo-question goes
type PhotoPlacement int

const (
	PhotoNone PhotoPlacement = iota
	PhotoFirst
	PhotoLast
)

// Engine holds an immutable, validated catalog
type Engine struct {
	questions []model.Question
	styles    []model.StyleCategory
	byID      map[string]int
}

// NewEngine creates an engine over a catalog. The slices are copied.
func NewEngine(questions []model.Question, styles []model.StyleCategory) *Engine {
	e := &Engine{
		questions: append([]model.Question(nil), questions...),
		styles:    make([]model.StyleCategory, len(styles)),
		byID:      make(map[string]int, len(questions)),
	}
	for i, q := range e.questions {
		e.byID[q.ID] = i
	}
	for i, s := range styles {
		s.Score = 0
		e.styles[i] = s
	}
	return e
}

// Questions returns the full catalog in declaration order
func (e *Engine) Questions() []model.Question {
	return append([]model.Question(nil), e.questions...)
}

// Styles returns the category catalog with zeroed scores
func (e *Engine) Styles() []model.StyleCategory {
	return append([]model.StyleCategory(nil), e.styles...)
}

// Question looks up a catalog question by id
func (e *Engine) Question(id string) (*model.Question, bool) {
	i, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	q := e.questions[i]
	return &q, true
}

// ActiveQuestions filters catalog down to the questions whose condition is
// absent or satisfied by answers, keeping declaration order, and injects the
// photo-upload pseudo-question at the requested end.
// A condition on a question that was never answered is not satisfied.
func ActiveQuestions(catalog []model.Question, answers []model.UserAnswer, photo PhotoPlacement) []model.Question {
	active := make([]model.Question, 0, len(catalog)+1)
	if photo == PhotoFirst {
		active = append(active, model.PhotoUploadQuestion())
	}
	for _, q := range catalog {
		if conditionMet(q.Condition, answers) {
			active = append(active, q)
		}
	}
	if photo == PhotoLast {
		active = append(active, model.PhotoUploadQuestion())
	}
	return active
}

func conditionMet(c *model.Condition, answers []model.UserAnswer) bool {
	if c == nil {
		return true
	}
	a, ok := model.FindAnswer(answers, c.QuestionID)
	if !ok {
		return false
	}
	return c.Accepts(a.OptionID)
}

// Active returns the live question list for a session state
func (e *Engine) Active(st model.QuizState) []model.Question {
	return ActiveQuestions(e.questions, st.Answers, placement(st))
}

func placement(st model.QuizState) PhotoPlacement {
	if st.PhotoUploadFirst {
		return PhotoFirst
	}
	return PhotoLast
}

// RecordAnswer replaces any answer to the same question and appends the new one.
// The input state is not modified.
func RecordAnswer(st model.QuizState, answer model.UserAnswer) model.QuizState {
	answers := make([]model.UserAnswer, 0, len(st.Answers)+1)
	for _, a := range st.Answers {
		if a.QuestionID != answer.QuestionID {
			answers = append(answers, a)
		}
	}
	st.Answers = append(answers, answer)
	return st
}

// Start leaves the pre-start sentinel and picks the entry flow
func Start(st model.QuizState, photoUploadFirst bool) model.QuizState {
	st.PhotoUploadFirst = photoUploadFirst
	st.CurrentIndex = 0
	st.Finished = false
	return st
}

// Advance moves to the next active question. When the cursor is already on
// the last one the state is returned with done set, and the caller should
// show results.
func (e *Engine) Advance(st model.QuizState) (next model.QuizState, done bool) {
	if st.CurrentIndex < 0 {
		st.CurrentIndex = 0
		return st, false
	}
	st = e.Clamp(st)
	if st.CurrentIndex >= len(e.Active(st))-1 {
		return st, true
	}
	st.CurrentIndex++
	return st, false
}

// Retreat moves back one question, never below the first
func (e *Engine) Retreat(st model.QuizState) model.QuizState {
	st = e.Clamp(st)
	if st.CurrentIndex > 0 {
		st.CurrentIndex--
	}
	st.Finished = false
	return st
}

// Clamp pulls the cursor back onto the last active question when a changed
// answer shrank the list under it. A session that has not started is left alone.
func (e *Engine) Clamp(st model.QuizState) model.QuizState {
	if st.CurrentIndex == model.NotStartedIndex {
		return st
	}
	if last := len(e.Active(st)) - 1; st.CurrentIndex > last {
		st.CurrentIndex = max(last, 0)
	}
	return st
}

// Restart returns the initial pre-start state
func Restart() model.QuizState {
	return model.NewQuizState()
}

// IsAnswered is true for the photo step once any photo has been processed,
// and for other questions once an answer exists for their id
func IsAnswered(st model.QuizState, q model.Question) bool {
	if q.ID == model.PhotoUploadID {
		return len(st.PhotoResults) > 0
	}
	_, ok := model.FindAnswer(st.Answers, q.ID)
	return ok
}

// View renders the state for a client
func (e *Engine) View(sessionID string, st model.QuizState) model.SessionView {
	active := e.Active(st)
	ids := make([]string, len(active))
	for i, q := range active {
		ids[i] = q.ID
	}

	view := model.SessionView{
		SessionID:       sessionID,
		Started:         st.CurrentIndex != model.NotStartedIndex,
		Finished:        st.Finished,
		CurrentIndex:    st.CurrentIndex,
		Total:           len(active),
		ActiveQuestions: ids,
		PhotoResults:    st.PhotoResults,
	}
	if !view.Started || len(active) == 0 {
		return view
	}

	// Changing an earlier answer can shrink the list under the cursor
	idx := st.CurrentIndex
	if idx > len(active)-1 {
		idx = len(active) - 1
	}
	q := active[idx]
	view.CurrentIndex = idx
	view.Step = idx + 1
	view.Question = &q
	view.Presentation = q.Presentation()
	view.IsAnswered = IsAnswered(st, q)
	view.IsFirst = idx == 0
	view.IsLast = idx == len(active)-1
	if a, ok := model.FindAnswer(st.Answers, q.ID); ok {
		view.CurrentAnswer = a.OptionID
	}
	return view
}
