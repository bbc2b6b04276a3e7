package interview

import "strings"

// Decision is the router's verdict after a completed round.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionEnd      Decision = "end"
)

const (
	// DefaultMaxRounds bounds the interview length.
	DefaultMaxRounds = 5
	// DefaultEndPhrase lets the candidate terminate explicitly.
	DefaultEndPhrase = "end the interview"
)

// Router decides whether the interview continues after a round. It is a pure
// predicate over the round count and the latest answer, with no side effects.
type Router struct {
	MaxRounds int
	EndPhrase string
}

// NewRouter returns a router with defaults applied for unset fields.
func NewRouter(maxRounds int, endPhrase string) Router {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if strings.TrimSpace(endPhrase) == "" {
		endPhrase = DefaultEndPhrase
	}
	return Router{MaxRounds: maxRounds, EndPhrase: endPhrase}
}

// Decide returns DecisionEnd when the latest answer contains the end phrase
// (case-insensitive) or the round cap is reached, DecisionContinue otherwise.
func (r Router) Decide(rounds int, lastAnswer string) Decision {
	if strings.Contains(strings.ToLower(lastAnswer), strings.ToLower(r.EndPhrase)) {
		return DecisionEnd
	}
	if rounds >= r.MaxRounds {
		return DecisionEnd
	}
	return DecisionContinue
}
