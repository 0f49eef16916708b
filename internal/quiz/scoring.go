package quiz

import (
	"math"
	"sort"
	"time"

	"stylequiz/internal/model"
)

// TopN is how many categories a report ranks
const TopN = 3

var unscored = map[string]bool{
	model.GenderQuestionID: true,
	model.PhotoUploadID:    true,
}

// ComputeScores recomputes every category's tally from scratch.
// Answers match a category by id, photo results match it by display name;
// anything without a match is ignored.
func ComputeScores(categories []model.StyleCategory, answers []model.UserAnswer, photos []model.PhotoResult) []model.StyleCategory {
	scored := make([]model.StyleCategory, len(categories))
	for i, c := range categories {
		c.Score = 0
		scored[i] = c
	}

	for _, a := range answers {
		if unscored[a.QuestionID] {
			continue
		}
		if i, ok := findByID(scored, a.OptionID); ok {
			scored[i].Score++
		}
	}
	for _, p := range photos {
		if i, ok := findByName(scored, p.Result); ok {
			scored[i].Score++
		}
	}
	return scored
}

func findByID(categories []model.StyleCategory, id string) (int, bool) {
	for i, c := range categories {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

func findByName(categories []model.StyleCategory, name string) (int, bool) {
	for i, c := range categories {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Percentage rounds 100*score/total half up. A zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	return int(math.Floor(100*float64(score)/float64(total) + 0.5))
}

// TotalScore sums every category's tally
func TotalScore(categories []model.StyleCategory) int {
	total := 0
	for _, c := range categories {
		total += c.Score
	}
	return total
}

// Rank orders scored categories by percentage, highest first, keeping
// catalog order between equals, drops zero percentages and keeps at most n.
func Rank(scored []model.StyleCategory, n int) []model.RankedStyle {
	total := TotalScore(scored)
	ranked := make([]model.RankedStyle, 0, len(scored))
	for _, c := range scored {
		pct := Percentage(c.Score, total)
		if pct == 0 {
			continue
		}
		ranked = append(ranked, model.RankedStyle{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Score:       c.Score,
			Percentage:  pct,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percentage > ranked[j].Percentage
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// BuildReport aggregates a session's answers and photo results
func (e *Engine) BuildReport(sessionID string, st model.QuizState) *model.Report {
	scored := ComputeScores(e.styles, st.Answers, st.PhotoResults)
	return &model.Report{
		SessionID:    sessionID,
		Styles:       scored,
		Top:          Rank(scored, TopN),
		TotalScore:   TotalScore(scored),
		PhotoResults: append([]model.PhotoResult{}, st.PhotoResults...),
		CreatedAt:    time.Now(),
	}
}
