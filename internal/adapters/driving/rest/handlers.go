package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/custodia-labs/notewise/internal/adapters/driving/backoff"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/normalisers"
)

// acceptedUploads are the types the summarize endpoint takes.
var acceptedUploads = map[string]bool{
	domain.MIMETypePDF:       true,
	domain.MIMETypeDOCX:      true,
	domain.MIMETypePlainText: true,
}

// ChatRequest is the body of POST /v1/api/chat.
type ChatRequest struct {
	Chat   string `json:"chat"`
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
}

// IngestRequest is the body of POST /v1/ingest.
type IngestRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": "notewise", "status": "ok"})
}

// handleSummarize reads a multipart upload (file, summaryLength,
// summaryType, user_id, note_id), extracts its text and summarises it.
func (s *Server) handleSummarize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, err)
			return
		}
		badRequest(c, "file is required")
		return
	}

	percent := 0
	if v := strings.TrimSpace(c.PostForm("summaryLength")); v != "" {
		percent, err = strconv.Atoi(strings.TrimSuffix(v, "%"))
		if err != nil || percent <= 0 || percent > 100 {
			badRequest(c, "summaryLength must be a percentage between 1 and 100")
			return
		}
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		respondError(c, err)
		return
	}

	mimeType := uploadType(header.Header.Get("Content-Type"), content)
	if !acceptedUploads[mimeType] {
		respondError(c, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType))
		return
	}
	s.metrics.observeUpload(mimeType)

	doc, err := s.ports.Normalisers.Normalise(c.Request.Context(), &domain.RawDocument{
		URI:      header.Filename,
		MIMEType: mimeType,
		Content:  content,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := s.ports.Notes.Summarize(c.Request.Context(), driving.SummarizeRequest{
		DocumentID:    c.PostForm("note_id"),
		OwnerID:       c.PostForm("user_id"),
		Style:         domain.SummaryStyle(c.PostForm("summaryType")),
		TargetPercent: percent,
		Text:          doc.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	s.metrics.observeDegraded("summarize", summary.Degraded)
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Chat) == "" {
		badRequest(c, "chat is required")
		return
	}

	answer, err := s.ports.Notes.Chat(c.Request.Context(), driving.ChatRequest{
		DocumentID: req.NoteID,
		OwnerID:    req.UserID,
		Question:   req.Chat,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	s.metrics.observeDegraded("chat", answer.Degraded)
	c.JSON(http.StatusOK, answer)
}

// handleIngest indexes text without summarising it, retrying transient failures.
func (s *Server) handleIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be JSON")
		return
	}
	if req.NoteID == "" {
		req.NoteID = uuid.NewString()
	}

	var result *driving.IngestResult
	err := backoff.Do(c.Request.Context(), "ingest", func(ctx context.Context) error {
		var err error
		result, err = s.ports.Ingest.Ingest(ctx, driving.IngestRequest{
			OwnerID:    req.UserID,
			DocumentID: req.NoteID,
			Collection: domain.CollectionNotes,
			Text:       req.Text,
		})
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// uploadType trusts a specific declared type and sniffs otherwise.
func uploadType(declared string, content []byte) string {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(declared)), ";")
	base = strings.TrimSpace(base)
	if base == "" || base == "application/octet-stream" {
		return normalisers.DetectMIMEType(content)
	}
	return base
}
