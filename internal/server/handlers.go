package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"integrityd/internal/actionlog"
	"integrityd/internal/engine"
	"integrityd/internal/screenwatch"
)

// analyzeRequest is the analyze endpoint's wire shape. Actions are decoded
// by the actionlog package after schema validation.
type analyzeRequest struct {
	Actions          json.RawMessage `json:"actions"`
	ReferenceActions json.RawMessage `json:"referenceActions,omitempty"`
	TextContent      string          `json:"textContent,omitempty"`
	SubmissionID     string          `json:"submissionId,omitempty"`
}

type screenRequest struct {
	Events       []screenwatch.Event `json:"events"`
	SubmissionID string              `json:"submissionId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	if err := validateAnalyzeRequest(bytes.NewReader(body)); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	actions, err := actionlog.Decode(req.Actions)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var reference actionlog.Log
	if len(req.ReferenceActions) > 0 {
		reference, err = actionlog.Decode(req.ReferenceActions)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	submissionID := req.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	result, err := s.engine.Analyze(c.Request.Context(), engine.Request{
		Actions:          actions,
		ReferenceActions: reference,
		TextContent:      req.TextContent,
		SubmissionID:     submissionID,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("analysis failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleScreenAnalyze(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	if err := validateScreenRequest(bytes.NewReader(body)); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req screenRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	activities := s.screen.Analyze(req.Events)
	c.JSON(http.StatusOK, gin.H{
		"submissionId": req.SubmissionID,
		"activities":   activities,
	})
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	limit := s.config.MaxBodyBytes
	if limit <= 0 {
		limit = 8 << 20
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable request body"})
		return nil, false
	}
	return body, true
}
