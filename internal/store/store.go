package store

import (
	"context"
	"errors"
	"time"

	"github.com/talvik/intervu/internal/ai"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

// Record is one persisted interview session.
type Record struct {
	ID             string
	ResumeText     string
	CompanyInfo    string
	JobDescription string

	// Artifacts written by the orchestrator at session end.
	Context    *ai.ContextSummary
	Report     *ai.FinalReport
	Sentiments []ai.SentimentRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput holds the immutable fields captured at upload time.
type CreateInput struct {
	ResumeText     string
	CompanyInfo    string
	JobDescription string
}

// ResultInput holds the artifacts persisted when a session ends. Nil fields
// are stored as-is: a disconnected session legitimately has no report.
type ResultInput struct {
	SessionID  string
	Context    *ai.ContextSummary
	Report     *ai.FinalReport
	Sentiments []ai.SentimentRecord
}

// Store persists interview sessions. SaveResult is idempotent: writing the
// same result twice yields the same stored record.
type Store interface {
	Create(ctx context.Context, input CreateInput) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	SaveResult(ctx context.Context, input ResultInput) error
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, id string) error
}
