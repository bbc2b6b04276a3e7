package ai

import "context"

// ContextSummary is the candidate/role profile derived once per interview
// from the resume and the job description. It steers question generation
// and final scoring.
type ContextSummary struct {
	CandidateName   string `json:"candidate_name"`
	RoleTitle       string `json:"role_title"`
	ExperienceLevel string `json:"experience_level"`
	FitSummary      string `json:"candidate_fit_summary"`
}

// Turn is one completed question/answer exchange.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SentimentRecord describes the tone of a single answer.
type SentimentRecord struct {
	Sentiment   string `json:"sentiment"`
	Explanation string `json:"explanation"`
}

// VerificationRecord is the fact-checker's verdict on a single answer.
type VerificationRecord struct {
	Correct     bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

// FinalReport is the terminal evaluation of the whole interview.
type FinalReport struct {
	QuestionsAsked    int      `json:"total_questions_asked"`
	CorrectAnswers    int      `json:"total_correct_answers"`
	OverallSummary    string   `json:"overall_summary"`
	ImprovementPoints []string `json:"points_for_improvement"`
	Score             int      `json:"final_score"`
}

// ContextInput is the state slice consumed by the context analyzer.
type ContextInput struct {
	JobDescription string
	CompanyInfo    string
	ResumeText     string
}

// QuestionInput is the state slice consumed by the interviewer. Previous is
// nil for the opening question; the interviewer then greets the candidate by
// name instead of following up.
type QuestionInput struct {
	Context  *ContextSummary
	Previous *Turn
}

// ScoringInput is the state slice consumed by the final scorer.
type ScoringInput struct {
	Context       *ContextSummary
	Turns         []Turn
	Verifications []VerificationRecord
}

// ContextAnalyzer produces the one-time candidate/role profile.
type ContextAnalyzer interface {
	AnalyzeContext(ctx context.Context, input ContextInput) (*ContextSummary, error)
}

// Interviewer generates the next question to ask.
type Interviewer interface {
	NextQuestion(ctx context.Context, input QuestionInput) (string, error)
}

// SentimentAnalyzer judges the tone of one answer.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, answer string) (*SentimentRecord, error)
}

// Verifier fact-checks one answer against its question.
type Verifier interface {
	Verify(ctx context.Context, question, answer string) (*VerificationRecord, error)
}

// Scorer produces the final report from the full interview state.
type Scorer interface {
	Score(ctx context.Context, input ScoringInput) (*FinalReport, error)
}

// Agents bundles the five interview agents. The orchestrator depends only on
// these interfaces so tests can substitute stubs for real gateway calls.
type Agents struct {
	Context   ContextAnalyzer
	Question  Interviewer
	Sentiment SentimentAnalyzer
	Verifier  Verifier
	Scorer    Scorer
}
