package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/talvik/intervu/internal/ai"
)

func TestMemoryCreateAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, CreateInput{
		ResumeText:     "resume",
		CompanyInfo:    "company",
		JobDescription: "job",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ResumeText != "resume" || got.JobDescription != "job" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMemoryGetNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySaveResultIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, CreateInput{ResumeText: "resume"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result := ResultInput{
		SessionID: created.ID,
		Context:   &ai.ContextSummary{CandidateName: "Jane Doe"},
		Report:    &ai.FinalReport{QuestionsAsked: 5, Score: 80},
		Sentiments: []ai.SentimentRecord{
			{Sentiment: "Confident", Explanation: "clear"},
		},
	}

	if err := m.SaveResult(ctx, result); err != nil {
		t.Fatalf("first save: %v", err)
	}
	first, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after first save: %v", err)
	}

	if err := m.SaveResult(ctx, result); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after second save: %v", err)
	}

	first.UpdatedAt = second.UpdatedAt
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated save changed the record:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(second.Sentiments) != 1 {
		t.Fatalf("expected 1 sentiment record, got %d", len(second.Sentiments))
	}
}

func TestMemorySaveResultPartialState(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, CreateInput{ResumeText: "resume"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A disconnected session persists without a report.
	err = m.SaveResult(ctx, ResultInput{
		SessionID:  created.ID,
		Context:    &ai.ContextSummary{CandidateName: "Jane Doe"},
		Sentiments: []ai.SentimentRecord{{Sentiment: "Neutral"}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Report != nil {
		t.Fatalf("expected no report, got %+v", got.Report)
	}
	if got.Context == nil || len(got.Sentiments) != 1 {
		t.Fatalf("expected partial artifacts, got %+v", got)
	}
}

func TestMemoryListAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, _ := m.Create(ctx, CreateInput{ResumeText: "a"})
	second, _ := m.Create(ctx, CreateInput{ResumeText: "b"})

	records, err := m.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if err := m.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}

	if _, err := m.Get(ctx, second.ID); err != nil {
		t.Fatalf("remaining record should survive: %v", err)
	}
}
