package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stylequiz/internal/model"
)

// ReportRepo handles MongoDB operations for style reports
type ReportRepo interface {
	Save(ctx context.Context, report *model.Report) error
	GetBySession(ctx context.Context, sessionID string) (*model.Report, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type reportRepo struct {
	reports *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		reports: db.Collection("reports"),
	}
}

// Save keeps one report per session, the latest run wins
func (r *reportRepo) Save(ctx context.Context, report *model.Report) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.reports.ReplaceOne(ctx, bson.M{"sessionId": report.SessionID}, report, opts)
	return err
}

func (r *reportRepo) GetBySession(ctx context.Context, sessionID string) (*model.Report, error) {
	var report model.Report
	err := r.reports.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteBySession removes the report of a session; a missing report is not an error
func (r *reportRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.reports.DeleteOne(ctx, bson.M{"sessionId": sessionID})
	return err
}
