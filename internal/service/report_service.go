package service

import (
	"context"
	"fmt"
	"log"

	"stylequiz/internal/cache"
	"stylequiz/internal/model"
	"stylequiz/internal/quiz"
	"stylequiz/internal/repository"
)

// ReportService persists final style reports and the global popularity tally
type ReportService struct {
	engine *quiz.Engine
	repo   repository.ReportRepo
	stats  cache.StyleStatsCache
}

// NewReportService creates a new report service
func NewReportService(engine *quiz.Engine, repo repository.ReportRepo, stats cache.StyleStatsCache) *ReportService {
	return &ReportService{
		engine: engine,
		repo:   repo,
		stats:  stats,
	}
}

// Generate computes the report for a finished quiz and stores it. The top
// style is counted when no report is stored yet, so finishing the same run
// twice counts once and a restarted run counts again.
func (s *ReportService) Generate(ctx context.Context, sessionID string, st model.QuizState) (*model.Report, error) {
	report := s.engine.BuildReport(sessionID, st)

	previous, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if err := s.repo.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	if previous == nil && len(report.Top) > 0 {
		if err := s.stats.Increment(ctx, report.Top[0].ID); err != nil {
			log.Printf("[Reports] ERROR: Failed to update style stats: %v", err)
		}
	}

	log.Printf("[Reports] Session %s: total=%d top=%v", sessionID, report.TotalScore, topIDs(report.Top))
	return report, nil
}

// Get returns the stored report of a session
func (s *ReportService) Get(ctx context.Context, sessionID string) (*model.Report, error) {
	report, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// Discard drops the stored report of a session so a restarted run reads as
// unscored until it finishes again
func (s *ReportService) Discard(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	log.Printf("[Reports] Session %s: report discarded", sessionID)
	return nil
}

// StyleStats returns how often each style came out on top, most popular first
func (s *ReportService) StyleStats(ctx context.Context, limit int) ([]model.StyleStat, error) {
	counts, err := s.stats.GetTop(ctx, limit)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for _, style := range s.engine.Styles() {
		names[style.ID] = style.Name
	}

	stats := make([]model.StyleStat, len(counts))
	for i, c := range counts {
		stats[i] = model.StyleStat{
			StyleID: c.StyleID,
			Name:    names[c.StyleID],
			Count:   c.Count,
			Rank:    c.Rank,
		}
	}
	return stats, nil
}

func topIDs(top []model.RankedStyle) []string {
	ids := make([]string, len(top))
	for i, r := range top {
		ids[i] = r.ID
	}
	return ids
}
