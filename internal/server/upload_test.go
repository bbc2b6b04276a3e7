package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/interview"
	"github.com/talvik/intervu/internal/store"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, *interview.Session, interview.Conn) error { return nil }

func stubExtractor(t *testing.T, text string, err error) {
	t.Helper()
	orig := extractPDFText
	extractPDFText = func([]byte) (string, error) { return text, err }
	t.Cleanup(func() { extractPDFText = orig })
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadCreatesSession(t *testing.T) {
	stubExtractor(t, "extracted resume text", nil)

	st := store.NewMemory()
	srv := New(Config{}, st, noopRunner{}, zap.NewNop())

	body, contentType := multipartBody(t, map[string]string{
		"company_info":    "Acme builds rockets.",
		"job_description": "Backend engineer.",
	}, "resume.pdf", []byte("%PDF-fake"))

	req := httptest.NewRequest(http.MethodPost, "/pdf/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		InterviewID string `json:"interview_id"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Upload successful" {
		t.Fatalf("message = %q", resp.Message)
	}

	record, err := st.Get(context.Background(), resp.InterviewID)
	if err != nil {
		t.Fatalf("session was not created: %v", err)
	}
	if record.ResumeText != "extracted resume text" {
		t.Fatalf("resume text = %q", record.ResumeText)
	}
	if record.CompanyInfo != "Acme builds rockets." || record.JobDescription != "Backend engineer." {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestUploadRejectsMissingFields(t *testing.T) {
	stubExtractor(t, "text", nil)

	srv := New(Config{}, store.NewMemory(), noopRunner{}, zap.NewNop())

	body, contentType := multipartBody(t, map[string]string{
		"company_info": "Acme",
	}, "resume.pdf", []byte("%PDF-fake"))

	req := httptest.NewRequest(http.MethodPost, "/pdf/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	srv := New(Config{}, store.NewMemory(), noopRunner{}, zap.NewNop())

	body, contentType := multipartBody(t, map[string]string{
		"company_info":    "Acme",
		"job_description": "Engineer",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/pdf/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadUnextractablePDF(t *testing.T) {
	stubExtractor(t, "", errors.New("not a pdf"))

	srv := New(Config{}, store.NewMemory(), noopRunner{}, zap.NewNop())

	body, contentType := multipartBody(t, map[string]string{
		"company_info":    "Acme",
		"job_description": "Engineer",
	}, "resume.pdf", []byte("garbage"))

	req := httptest.NewRequest(http.MethodPost, "/pdf/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := New(Config{}, store.NewMemory(), noopRunner{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
