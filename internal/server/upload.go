package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/store"
)

// maxUploadBytes bounds the whole multipart body. Resumes are small; the
// limit only guards against abuse.
const maxUploadBytes = 10 << 20

// extractPDFText is a variable so upload tests can substitute plain text for
// a real PDF body.
var extractPDFText = func(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}

	return text, nil
}

// handleUpload accepts a multipart form with the resume PDF and the job
// posting details, and creates a pending interview session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	companyInfo := r.FormValue("company_info")
	jobDescription := r.FormValue("job_description")
	if companyInfo == "" || jobDescription == "" {
		writeError(w, http.StatusBadRequest, "company_info and job_description are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading resume file")
		return
	}

	resumeText, err := extractPDFText(data)
	if err != nil {
		s.logger.Warn("resume extraction failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "could not extract text from the resume")
		return
	}

	record, err := s.store.Create(r.Context(), store.CreateInput{
		ResumeText:     resumeText,
		CompanyInfo:    companyInfo,
		JobDescription: jobDescription,
	})
	if err != nil {
		s.logger.Error("creating interview session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create interview session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"interview_id": record.ID,
		"message":      "Upload successful",
	})
}
