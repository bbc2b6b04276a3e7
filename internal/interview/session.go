package interview

import "github.com/talvik/intervu/internal/ai"

// Session is the full in-memory state of one interview. It is owned by a
// single orchestrator for the lifetime of one connection; nothing else
// mutates it.
//
// Turns, Sentiments and Verifications are parallel append-only sequences:
// after every completed round all three have the same length.
type Session struct {
	ID string

	// Captured at upload time, immutable afterwards.
	ResumeText     string
	CompanyInfo    string
	JobDescription string

	// Written exactly once during initialization.
	Context *ai.ContextSummary

	Turns         []ai.Turn
	Sentiments    []ai.SentimentRecord
	Verifications []ai.VerificationRecord

	// CurrentQuestion is the question the candidate is expected to answer
	// next. Overwritten each round.
	CurrentQuestion string

	// Report is set if and only if the interview reached normal termination.
	Report *ai.FinalReport
}

// Rounds returns the number of completed question/answer rounds.
func (s *Session) Rounds() int {
	return len(s.Turns)
}

// LastTurn returns the most recently completed exchange, or nil before the
// first answer arrives.
func (s *Session) LastTurn() *ai.Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}
