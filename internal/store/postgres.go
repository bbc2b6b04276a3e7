package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talvik/intervu/internal/ai"
)

const schema = `
CREATE TABLE IF NOT EXISTS interviews (
	id UUID PRIMARY KEY,
	resume_text TEXT NOT NULL,
	company_info TEXT NOT NULL DEFAULT '',
	job_description TEXT NOT NULL DEFAULT '',
	context_summary JSONB,
	final_report JSONB,
	sentiments JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and bootstraps the schema.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Create(ctx context.Context, input CreateInput) (*Record, error) {
	record := &Record{
		ID:             uuid.NewString(),
		ResumeText:     input.ResumeText,
		CompanyInfo:    input.CompanyInfo,
		JobDescription: input.JobDescription,
		CreatedAt:      time.Now(),
	}
	record.UpdatedAt = record.CreatedAt

	_, err := p.pool.Exec(ctx,
		`INSERT INTO interviews (id, resume_text, company_info, job_description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.ResumeText, record.CompanyInfo, record.JobDescription,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert interview: %w", err)
	}

	return record, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Record, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, resume_text, company_info, job_description,
		        context_summary, final_report, sentiments,
		        created_at, updated_at
		 FROM interviews WHERE id = $1`, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get interview: %w", err)
	}

	return record, nil
}

func (p *Postgres) SaveResult(ctx context.Context, input ResultInput) error {
	contextJSON, err := marshalNullable(input.Context)
	if err != nil {
		return fmt.Errorf("marshal context summary: %w", err)
	}
	reportJSON, err := marshalNullable(input.Report)
	if err != nil {
		return fmt.Errorf("marshal final report: %w", err)
	}
	sentimentsJSON, err := json.Marshal(input.Sentiments)
	if err != nil {
		return fmt.Errorf("marshal sentiments: %w", err)
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE interviews
		 SET context_summary = $2, final_report = $3, sentiments = $4, updated_at = $5
		 WHERE id = $1`,
		input.SessionID, contextJSON, reportJSON, sentimentsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("save interview result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) List(ctx context.Context) ([]*Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, resume_text, company_info, job_description,
		        context_summary, final_report, sentiments,
		        created_at, updated_at
		 FROM interviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		record         Record
		contextJSON    []byte
		reportJSON     []byte
		sentimentsJSON []byte
	)

	err := row.Scan(&record.ID, &record.ResumeText, &record.CompanyInfo, &record.JobDescription,
		&contextJSON, &reportJSON, &sentimentsJSON,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(contextJSON) > 0 {
		record.Context = &ai.ContextSummary{}
		if err := json.Unmarshal(contextJSON, record.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context summary: %w", err)
		}
	}
	if len(reportJSON) > 0 {
		record.Report = &ai.FinalReport{}
		if err := json.Unmarshal(reportJSON, record.Report); err != nil {
			return nil, fmt.Errorf("unmarshal final report: %w", err)
		}
	}
	if len(sentimentsJSON) > 0 {
		if err := json.Unmarshal(sentimentsJSON, &record.Sentiments); err != nil {
			return nil, fmt.Errorf("unmarshal sentiments: %w", err)
		}
	}

	return &record, nil
}

// marshalNullable keeps absent artifacts as SQL NULL instead of the JSON
// literal "null".
func marshalNullable(v any) (any, error) {
	switch value := v.(type) {
	case *ai.ContextSummary:
		if value == nil {
			return nil, nil
		}
	case *ai.FinalReport:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
