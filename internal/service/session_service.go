package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"stylequiz/internal/cache"
	"stylequiz/internal/model"
	"stylequiz/internal/quiz"
	"stylequiz/internal/repository"
)

// PhotoAnalyzer classifies a batch of photos
type PhotoAnalyzer interface {
	Analyze(ctx context.Context, photos []Photo) ([]model.PhotoResult, error)
}

// SessionService drives one user's questionnaire. State lives in MongoDB with
// a Redis read-through cache; every transition goes through quiz.Engine.
type SessionService struct {
	engine  *quiz.Engine
	repo    repository.SessionRepo
	cache   cache.SessionCache
	reports *ReportService
	auth    *AuthService
	photos  PhotoAnalyzer
}

// NewSessionService creates a new session service
func NewSessionService(
	engine *quiz.Engine,
	repo repository.SessionRepo,
	sessionCache cache.SessionCache,
	reports *ReportService,
	auth *AuthService,
	photos PhotoAnalyzer,
) *SessionService {
	return &SessionService{
		engine:  engine,
		repo:    repo,
		cache:   sessionCache,
		reports: reports,
		auth:    auth,
		photos:  photos,
	}
}

// Create opens a new session and returns its access token
func (s *SessionService) Create(ctx context.Context) (*model.CreateSessionResponse, error) {
	session := &model.Session{
		ID:   uuid.New().String(),
		Quiz: model.NewQuizState(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.auth.IssueSessionToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("[Session] Created %s", session.ID)
	return &model.CreateSessionResponse{SessionID: session.ID, Token: token}, nil
}

// Get loads a session, cache first. A copy read from MongoDB is cached only if
// no write landed while it was loading.
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		log.Printf("[Session] WARN: cache read failed for %s: %v", id, err)
	} else if cached != nil {
		return cached, nil
	}

	gen, genErr := s.cache.Generation(ctx, id)
	if genErr != nil {
		log.Printf("[Session] WARN: cache generation read failed for %s: %v", id, genErr)
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if genErr == nil {
		if stored, err := s.cache.SetIfUnchanged(ctx, session, gen); err != nil {
			log.Printf("[Session] WARN: cache write failed for %s: %v", id, err)
		} else if !stored {
			log.Printf("[Session] Skipped caching %s: written while loading", id)
		}
	}
	return session, nil
}

// View returns what the client renders for the current step
func (s *SessionService) View(ctx context.Context, id string) (*model.SessionView, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Start begins the questionnaire, placing the photo step first or last
func (s *SessionService) Start(ctx context.Context, id string, photoUploadFirst bool) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(st model.QuizState) model.QuizState {
		return quiz.Start(st, photoUploadFirst)
	})
}

// Answer records the selected option. The question and option must exist in
// the catalog; whether the question is currently active is not checked, so the
// cursor is clamped when the answer shrinks the active list.
func (s *SessionService) Answer(ctx context.Context, id, questionID, optionID string) (*model.SessionView, error) {
	if err := s.validateAnswer(questionID, optionID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(st model.QuizState) model.QuizState {
		return s.engine.Clamp(quiz.RecordAnswer(st, model.UserAnswer{QuestionID: questionID, OptionID: optionID}))
	})
}

func (s *SessionService) validateAnswer(questionID, optionID string) error {
	if questionID == model.PhotoUploadID {
		if optionID != model.PhotoUploadedOption {
			return fmt.Errorf("%w: %q", ErrInvalidOption, optionID)
		}
		return nil
	}
	q, ok := s.engine.Question(questionID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	if !q.HasOption(optionID) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, optionID)
	}
	return nil
}

// Next moves forward. Past the last active question it computes and stores
// the report, marks the session finished and returns the report.
func (s *SessionService) Next(ctx context.Context, id string) (*model.SessionView, *model.Report, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	next, done := s.engine.Advance(session.Quiz)
	if !done {
		session.Quiz = next
		if err := s.save(ctx, session); err != nil {
			return nil, nil, err
		}
		return s.view(session), nil, nil
	}

	report, err := s.reports.Generate(ctx, id, session.Quiz)
	if err != nil {
		return nil, nil, err
	}
	session.Quiz.Finished = true
	if err := s.save(ctx, session); err != nil {
		return nil, nil, err
	}
	return s.view(session), report, nil
}

// Prev moves back one question
func (s *SessionService) Prev(ctx context.Context, id string) (*model.SessionView, error) {
	return s.mutate(ctx, id, s.engine.Retreat)
}

// Restart clears answers, photos and position, and drops the stored report
func (s *SessionService) Restart(ctx context.Context, id string) (*model.SessionView, error) {
	view, err := s.mutate(ctx, id, func(model.QuizState) model.QuizState {
		return quiz.Restart()
	})
	if err != nil {
		return nil, err
	}
	if err := s.reports.Discard(ctx, id); err != nil {
		return nil, err
	}
	return view, nil
}

// SubmitPhotos classifies the batch, adds the results to the session and marks
// the photo step answered. Nothing is stored if any photo fails.
func (s *SessionService) SubmitPhotos(ctx context.Context, id string, photos []Photo) (*model.SessionView, error) {
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	results, err := s.photos.Analyze(ctx, photos)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(st model.QuizState) model.QuizState {
		st.PhotoResults = append(append([]model.PhotoResult{}, st.PhotoResults...), results...)
		return quiz.RecordAnswer(st, model.UserAnswer{
			QuestionID: model.PhotoUploadID,
			OptionID:   model.PhotoUploadedOption,
		})
	})
}

// Report returns the stored report of a session
func (s *SessionService) Report(ctx context.Context, id string) (*model.Report, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.reports.Get(ctx, id)
}

// SetColorStep stores the result of one color analysis step
func (s *SessionService) SetColorStep(ctx context.Context, id string, step model.ColorStep, analysis *model.ColorAnalysis) error {
	return s.updateColor(ctx, id, func() error {
		return s.repo.SetColorStep(ctx, id, step, analysis)
	})
}

// ClearColorStep removes the result of one color analysis step
func (s *SessionService) ClearColorStep(ctx context.Context, id string, step model.ColorStep) error {
	return s.updateColor(ctx, id, func() error {
		return s.repo.ClearColorStep(ctx, id, step)
	})
}

// ClearColor removes every color analysis result
func (s *SessionService) ClearColor(ctx context.Context, id string) error {
	return s.updateColor(ctx, id, func() error {
		return s.repo.ClearColor(ctx, id)
	})
}

func (s *SessionService) updateColor(ctx context.Context, id string, update func() error) error {
	if err := update(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *SessionService) mutate(ctx context.Context, id string, fn func(model.QuizState) model.QuizState) (*model.SessionView, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Quiz = fn(session.Quiz)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// save writes only the quiz state and drops the cached copy, so a color
// result stored concurrently is never overwritten by a stale session
func (s *SessionService) save(ctx context.Context, session *model.Session) error {
	if err := s.repo.UpdateQuiz(ctx, session.ID, session.Quiz); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.invalidate(ctx, session.ID)
	return nil
}

func (s *SessionService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		log.Printf("[Session] WARN: cache invalidation failed for %s: %v", id, err)
	}
}

func (s *SessionService) view(session *model.Session) *model.SessionView {
	view := s.engine.View(session.ID, session.Quiz)
	view.Color = session.Color
	return &view
}
