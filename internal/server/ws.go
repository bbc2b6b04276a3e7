package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/ai"
	"github.com/talvik/intervu/internal/interview"
	"github.com/talvik/intervu/internal/logger"
	"github.com/talvik/intervu/internal/store"
)

const closeGracePeriod = time.Second

// outbound is the envelope every server-to-client message uses.
type outbound struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Data *ai.FinalReport `json:"data,omitempty"`
}

// handleInterview upgrades the connection and hands it to the runner. The
// whole interview lives inside this handler.
func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log := s.logger.With(zap.String(logger.FieldSession, id))

	record, err := s.store.Get(r.Context(), id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("loading session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load session")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	// Unknown sessions and duplicate connections are both policy
	// violations: the upgrade succeeds so the client gets a meaningful
	// close code instead of a plain HTTP error.
	if record == nil {
		closeWith(ws, websocket.ClosePolicyViolation, "unknown interview id")
		return
	}
	if err := s.registry.Acquire(id); err != nil {
		log.Warn("rejecting duplicate connection")
		closeWith(ws, websocket.ClosePolicyViolation, "interview already in progress")
		return
	}
	defer s.registry.Release(id)

	sess := &interview.Session{
		ID:             record.ID,
		ResumeText:     record.ResumeText,
		CompanyInfo:    record.CompanyInfo,
		JobDescription: record.JobDescription,
	}

	conn := &wsConn{ws: ws}
	if err := s.runner.Run(r.Context(), sess, conn); err != nil {
		log.Error("interview aborted", zap.Error(err))
		closeWith(ws, websocket.CloseInternalServerErr, "interview aborted")
		return
	}

	closeWith(ws, websocket.CloseNormalClosure, "")
}

func closeWith(ws *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(closeGracePeriod)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

// wsConn adapts a gorilla websocket to the interview.Conn contract.
// Questions and the report go out as typed JSON envelopes; answers come in
// as plain text frames.
type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadAnswer(ctx context.Context) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetReadDeadline(deadline)
		defer c.ws.SetReadDeadline(time.Time{})
	}

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", context.DeadlineExceeded
		}
		return "", interview.ErrDisconnected
	}

	answer := strings.TrimSpace(string(data))
	return answer, nil
}

func (c *wsConn) SendQuestion(text string) error {
	return c.send(outbound{Type: "ai_response", Text: text})
}

func (c *wsConn) SendReport(report *ai.FinalReport) error {
	return c.send(outbound{Type: "final_report", Data: report})
}

func (c *wsConn) send(msg outbound) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}
