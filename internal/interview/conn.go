package interview

import (
	"context"
	"errors"

	"github.com/talvik/intervu/internal/ai"
)

// ErrDisconnected signals that the candidate's channel closed. It is a
// recognized teardown condition, not a failure.
var ErrDisconnected = errors.New("candidate disconnected")

// Conn is the per-session duplex channel the orchestrator talks through.
// The websocket implementation lives in the server package; tests use fakes.
type Conn interface {
	// ReadAnswer blocks until the candidate sends the next answer.
	// Returns ErrDisconnected when the channel closes.
	ReadAnswer(ctx context.Context) (string, error)
	// SendQuestion delivers a new question to the candidate.
	SendQuestion(text string) error
	// SendReport delivers the terminal report to the candidate.
	SendReport(report *ai.FinalReport) error
}
