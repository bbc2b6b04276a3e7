package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/talvik/intervu/internal/ai"
	"github.com/talvik/intervu/internal/logger"
)

//go:embed prompts/context_analyzer.md
var contextPrompt string

//go:embed prompts/interviewer_system.md
var interviewerSystemPrompt string

//go:embed prompts/interviewer_opening.md
var interviewerOpeningPrompt string

//go:embed prompts/interviewer_followup.md
var interviewerFollowupPrompt string

//go:embed prompts/sentiment.md
var sentimentPrompt string

//go:embed prompts/verifier.md
var verifierPrompt string

//go:embed prompts/scorer.md
var scorerPrompt string

const (
	agentContext   = "context_analyzer"
	agentQuestion  = "interviewer"
	agentSentiment = "sentiment_analyzer"
	agentVerifier  = "verifier"
	agentScorer    = "final_scorer"
)

// contentGenerator is the generator surface the agents rely on.
type contentGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// SuiteConfig selects the models used by the agent suite. The verifier and
// the final scorer run on a stronger model than the conversational agents.
type SuiteConfig struct {
	Model         string
	VerifierModel string
}

// Suite implements the five interview agents on top of a shared Generator.
type Suite struct {
	gen           contentGenerator
	model         string
	verifierModel string
	logger        *zap.Logger
}

// NewSuite creates the agent suite. Empty model names fall back to the
// generator's default model.
func NewSuite(gen contentGenerator, cfg SuiteConfig, log *zap.Logger) *Suite {
	log = logger.WithCommonFields(log, "gemini", cfg.Model)

	verifierModel := strings.TrimSpace(cfg.VerifierModel)
	if verifierModel == "" {
		verifierModel = strings.TrimSpace(cfg.Model)
	}

	return &Suite{
		gen:           gen,
		model:         strings.TrimSpace(cfg.Model),
		verifierModel: verifierModel,
		logger:        log,
	}
}

// Agents returns the suite wired into the orchestrator-facing bundle.
func (s *Suite) Agents() ai.Agents {
	return ai.Agents{
		Context:   s,
		Question:  s,
		Sentiment: s,
		Verifier:  s,
		Scorer:    s,
	}
}

var contextSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"candidate_name":        {Type: genai.TypeString, Description: "The candidate's full name"},
		"role_title":            {Type: genai.TypeString, Description: "The job title from the job description"},
		"experience_level":      {Type: genai.TypeString, Description: "Estimated experience level (e.g., Junior, Mid-level, Senior)"},
		"candidate_fit_summary": {Type: genai.TypeString, Description: "A 1-2 sentence analysis of how the resume aligns with the job description"},
	},
	Required: []string{"candidate_name", "role_title", "experience_level", "candidate_fit_summary"},
}

var sentimentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentiment":   {Type: genai.TypeString, Description: "The overall sentiment of the answer (e.g., Positive, Neutral, Negative, Confident, Hesitant)"},
		"explanation": {Type: genai.TypeString, Description: "A brief explanation for the sentiment analysis"},
	},
	Required: []string{"sentiment", "explanation"},
}

var verificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_correct":  {Type: genai.TypeBoolean, Description: "Whether the answer is technically correct"},
		"explanation": {Type: genai.TypeString, Description: "A brief explanation for why the answer is correct or incorrect"},
	},
	Required: []string{"is_correct", "explanation"},
}

var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"total_questions_asked":  {Type: genai.TypeInteger, Description: "The total number of questions the interviewer asked"},
		"total_correct_answers":  {Type: genai.TypeInteger, Description: "The total number of answers deemed technically correct by the verifier"},
		"overall_summary":        {Type: genai.TypeString, Description: "A 2-3 sentence summary of the candidate's performance"},
		"points_for_improvement": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "2-3 specific, actionable suggestions for the candidate"},
		"final_score":            {Type: genai.TypeInteger, Description: "An overall score for the interview from 1-100"},
	},
	Required: []string{"total_questions_asked", "total_correct_answers", "overall_summary", "points_for_improvement", "final_score"},
}

// AnalyzeContext derives the candidate/role profile from the resume and job
// description. Runs once per session.
func (s *Suite) AnalyzeContext(ctx context.Context, input ai.ContextInput) (*ai.ContextSummary, error) {
	s.logger.Debug("running agent", zap.String(logger.FieldAgent, agentContext))

	message := renderTemplate(contextPrompt, map[string]string{
		"JOB_DESCRIPTION": input.JobDescription,
		"COMPANY_INFO":    input.CompanyInfo,
		"RESUME_TEXT":     input.ResumeText,
	})

	raw, err := s.gen.Generate(ctx, Request{
		Model:       s.model,
		Message:     message,
		Schema:      contextSchema,
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return nil, &ai.TransportError{Agent: agentContext, Err: err}
	}

	var summary ai.ContextSummary
	if err := decodeJSON(raw, &summary); err != nil {
		return nil, &ai.SchemaError{Agent: agentContext, Raw: raw, Err: err}
	}

	if strings.TrimSpace(summary.CandidateName) == "" {
		return nil, &ai.SchemaError{Agent: agentContext, Raw: raw, Err: fmt.Errorf("candidate_name is empty")}
	}

	return &summary, nil
}

// NextQuestion produces the opening greeting question when input.Previous is
// nil, or a follow-up pivoting off the last exchange otherwise.
func (s *Suite) NextQuestion(ctx context.Context, input ai.QuestionInput) (string, error) {
	s.logger.Debug("running agent", zap.String(logger.FieldAgent, agentQuestion))

	system := renderTemplate(interviewerSystemPrompt, map[string]string{
		"JOB_CONTEXT": marshalForPrompt(input.Context),
	})

	var message string
	if input.Previous == nil {
		name := ""
		if input.Context != nil {
			name = input.Context.CandidateName
		}
		message = renderTemplate(interviewerOpeningPrompt, map[string]string{
			"CANDIDATE_NAME": name,
		})
	} else {
		message = renderTemplate(interviewerFollowupPrompt, map[string]string{
			"QUESTION": input.Previous.Question,
			"ANSWER":   input.Previous.Answer,
		})
	}

	question, err := s.gen.Generate(ctx, Request{
		Model:       s.model,
		System:      system,
		Message:     message,
		Temperature: genai.Ptr[float32](0.8),
	})
	if err != nil {
		return "", &ai.TransportError{Agent: agentQuestion, Err: err}
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", &ai.SchemaError{Agent: agentQuestion, Raw: question, Err: fmt.Errorf("empty question")}
	}

	return question, nil
}

// AnalyzeSentiment judges the tone of the candidate's most recent answer.
func (s *Suite) AnalyzeSentiment(ctx context.Context, answer string) (*ai.SentimentRecord, error) {
	s.logger.Debug("running agent", zap.String(logger.FieldAgent, agentSentiment))

	message := renderTemplate(sentimentPrompt, map[string]string{
		"ANSWER": answer,
	})

	raw, err := s.gen.Generate(ctx, Request{
		Model:       s.model,
		Message:     message,
		Schema:      sentimentSchema,
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return nil, &ai.TransportError{Agent: agentSentiment, Err: err}
	}

	var record ai.SentimentRecord
	if err := decodeJSON(raw, &record); err != nil {
		return nil, &ai.SchemaError{Agent: agentSentiment, Raw: raw, Err: err}
	}

	return &record, nil
}

// Verify fact-checks the answer against its question.
func (s *Suite) Verify(ctx context.Context, question, answer string) (*ai.VerificationRecord, error) {
	s.logger.Debug("running agent", zap.String(logger.FieldAgent, agentVerifier))

	message := renderTemplate(verifierPrompt, map[string]string{
		"QUESTION": question,
		"ANSWER":   answer,
	})

	raw, err := s.gen.Generate(ctx, Request{
		Model:       s.verifierModel,
		Message:     message,
		Schema:      verificationSchema,
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return nil, &ai.TransportError{Agent: agentVerifier, Err: err}
	}

	var record ai.VerificationRecord
	if err := decodeJSON(raw, &record); err != nil {
		return nil, &ai.SchemaError{Agent: agentVerifier, Raw: raw, Err: err}
	}

	return &record, nil
}

// Score produces the final report from the full interview state.
func (s *Suite) Score(ctx context.Context, input ai.ScoringInput) (*ai.FinalReport, error) {
	s.logger.Debug("running agent", zap.String(logger.FieldAgent, agentScorer))

	message := renderTemplate(scorerPrompt, map[string]string{
		"JOB_CONTEXT":          marshalForPrompt(input.Context),
		"CONVERSATION_HISTORY": marshalForPrompt(input.Turns),
		"VERIFICATIONS":        marshalForPrompt(input.Verifications),
	})

	raw, err := s.gen.Generate(ctx, Request{
		Model:       s.verifierModel,
		Message:     message,
		Schema:      reportSchema,
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, &ai.TransportError{Agent: agentScorer, Err: err}
	}

	var report ai.FinalReport
	if err := decodeJSON(raw, &report); err != nil {
		return nil, &ai.SchemaError{Agent: agentScorer, Raw: raw, Err: err}
	}

	return &report, nil
}

func renderTemplate(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(out)
}

func marshalForPrompt(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func decodeJSON(raw string, out any) error {
	return json.Unmarshal([]byte(extractJSON(raw)), out)
}

// extractJSON strips markdown code fences the model occasionally wraps
// around JSON output even in schema-constrained mode.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
