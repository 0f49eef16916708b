package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"stylequiz/internal/model"
)

// SessionRepo handles MongoDB operations for quiz sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	UpdateQuiz(ctx context.Context, id string, quiz model.QuizState) error
	SetColorStep(ctx context.Context, id string, step model.ColorStep, analysis *model.ColorAnalysis) error
	ClearColorStep(ctx context.Context, id string, step model.ColorStep) error
	ClearColor(ctx context.Context, id string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

// GetByID returns nil, nil when the session does not exist
func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateQuiz replaces only the questionnaire state so a color job finishing
// at the same time does not lose its write
func (r *sessionRepo) UpdateQuiz(ctx context.Context, id string, quiz model.QuizState) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"quiz": quiz, "updatedAt": time.Now()},
	})
}

func (r *sessionRepo) SetColorStep(ctx context.Context, id string, step model.ColorStep, analysis *model.ColorAnalysis) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"color." + string(step): analysis, "updatedAt": time.Now()},
	})
}

func (r *sessionRepo) ClearColorStep(ctx context.Context, id string, step model.ColorStep) error {
	return r.update(ctx, id, bson.M{
		"$unset": bson.M{"color." + string(step): ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	})
}

func (r *sessionRepo) ClearColor(ctx context.Context, id string) error {
	return r.update(ctx, id, bson.M{
		"$unset": bson.M{"color": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	})
}

func (r *sessionRepo) update(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
