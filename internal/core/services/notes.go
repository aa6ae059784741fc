package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/logger"
	"github.com/custodia-labs/notewise/internal/prompts"
)

// Ensure NoteService implements the interface.
var _ driving.NoteService = (*NoteService)(nil)

// noContext is shown to the model when retrieval found nothing.
const noContext = "(no relevant content was found in the document)"

// NoteService implements the summarize and chat entry points on top of
// ingestion, retrieval and the conversation manager.
type NoteService struct {
	ingest       *IngestService
	retrieval    *RetrievalService
	conversation *ConversationManager
	store        *VectorStore
	llm          driven.LLMService
	prompts      driven.PromptStore
	indexTurns   bool
}

// NoteServiceOption configures a NoteService.
type NoteServiceOption func(*NoteService)

// WithPromptStore loads templates from store instead of the built-ins.
func WithPromptStore(store driven.PromptStore) NoteServiceOption {
	return func(s *NoteService) {
		s.prompts = store
	}
}

// WithTurnIndexing writes every chat exchange to the chat_history
// collection so it can be recalled by similarity later.
func WithTurnIndexing(enabled bool) NoteServiceOption {
	return func(s *NoteService) {
		s.indexTurns = enabled
	}
}

// NewNoteService creates a note service. llm may be nil, in which case
// Summarize and Chat return domain.ErrLLMUnavailable.
func NewNoteService(
	ingest *IngestService,
	retrieval *RetrievalService,
	conversation *ConversationManager,
	store *VectorStore,
	llm driven.LLMService,
	opts ...NoteServiceOption,
) *NoteService {
	s := &NoteService{
		ingest:       ingest,
		retrieval:    retrieval,
		conversation: conversation,
		store:        store,
		llm:          llm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize asks the model for a summary of the text and, concurrently,
// ingests the text into the notes collection. Ingestion failures fail the
// request; unparseable model output degrades to an empty summary.
func (s *NoteService) Summarize(ctx context.Context, req driving.SummarizeRequest) (*domain.Summary, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("summarize: %w", domain.ErrLLMUnavailable)
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("summarize: %w: owner id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("summarize: %w: text is required", domain.ErrInvalidInput)
	}

	percent := req.TargetPercent
	if percent == 0 {
		percent = domain.DefaultTargetPercent
	}
	if percent < 1 || percent > 100 {
		return nil, fmt.Errorf("summarize: %w: target percent %d outside 1-100", domain.ErrInvalidInput, percent)
	}
	style := req.Style
	if style == "" {
		style = domain.DefaultSummaryStyle
	}
	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	prompt, err := s.render(driven.PromptSummarise, prompts.SummariseData{
		Percent: percent,
		Style:   string(style),
		Note:    req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	logger.Section("Summarize")
	logger.Debug("Document %s: %d%%, style %q", documentID, percent, style)

	var raw string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.llm.Generate(gctx, prompt, driven.GenerateOptions{JSON: true})
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		raw = out
		return nil
	})
	g.Go(func() error {
		_, err := s.ingest.Ingest(gctx, driving.IngestRequest{
			OwnerID:    req.OwnerID,
			DocumentID: documentID,
			Collection: domain.CollectionNotes,
			Text:       req.Text,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	summary := ParseSummary(raw)
	summary.DocumentID = documentID
	return summary, nil
}

// Chat answers a question about a document. Note chunks relevant to the
// question, recalled chat exchanges and the session transcript are
// gathered in parallel and rendered into the chat prompt. The exchange is
// then appended to the session (and indexed when enabled).
func (s *NoteService) Chat(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("chat: %w", domain.ErrLLMUnavailable)
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("chat: %w: question is required", domain.ErrInvalidInput)
	}
	key := domain.SessionKey{OwnerID: req.OwnerID, DocumentID: req.DocumentID}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	logger.Section("Chat")

	var (
		notes      []domain.QueryResult
		recalled   []domain.QueryResult
		transcript string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = s.retrieval.Retrieve(gctx, driving.RetrieveRequest{
			DocumentID: req.DocumentID,
			Query:      req.Question,
			Collection: domain.CollectionNotes,
		})
		return err
	})
	if s.indexTurns {
		g.Go(func() error {
			var err error
			recalled, err = s.retrieval.Retrieve(gctx, driving.RetrieveRequest{
				DocumentID: req.DocumentID,
				OwnerID:    req.OwnerID,
				Query:      "",
				Collection: domain.CollectionChatHistory,
			})
			return err
		})
	}
	g.Go(func() error {
		var err error
		transcript, err = s.conversation.Render(gctx, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	note := JoinTexts(notes)
	if note == "" {
		note = noContext
	}
	prompt, err := s.render(driven.PromptChat, prompts.ChatData{
		History:  historyContext(recalled, transcript),
		Question: req.Question,
		Note:     note,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	logger.Debug("Chat %s: %d note chunks, %d recalled exchanges", key, len(notes), len(recalled))

	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{JSON: true})
	if err != nil {
		return nil, fmt.Errorf("chat: generate: %w", err)
	}
	answer := ParseChatAnswer(raw)

	turns, err := s.conversation.AppendExchange(ctx, key, req.Question, answer.Answer)
	if err != nil {
		logger.Warn("Chat %s: history not updated: %v", key, err)
		return answer, nil
	}
	if s.indexTurns && len(turns) > 0 {
		s.indexExchange(ctx, key, turns)
	}
	return answer, nil
}

// indexExchange writes one exchange to chat_history with id
// "{session}:{seq}", where session is key.Encode(), so owners sharing a
// document id never overwrite each other. Failures are logged; the answer
// was already produced.
func (s *NoteService) indexExchange(ctx context.Context, key domain.SessionKey, turns []domain.Turn) {
	record := domain.NewChunkRecord(key.OwnerID, key.DocumentID, int(turns[0].Seq), RenderTurns(turns))
	record.ID = domain.ChunkID(key.Encode(), int(turns[0].Seq))
	if err := s.store.Upsert(ctx, domain.CollectionChatHistory, []domain.ChunkRecord{record}); err != nil {
		logger.Warn("Chat %s: exchange not indexed: %v", key, err)
	}
}

// historyContext merges recalled older exchanges with the live transcript.
func historyContext(recalled []domain.QueryResult, transcript string) string {
	var sections []string
	if len(recalled) > 0 {
		sections = append(sections, "Earlier exchanges:\n"+JoinTexts(recalled))
	}
	if transcript != "" {
		sections = append(sections, transcript)
	}
	if len(sections) == 0 {
		return "(no previous conversation)"
	}
	return strings.Join(sections, "\n\n")
}

// render loads a template from the prompt store, falling back to the built-in.
func (s *NoteService) render(name string, data any) (string, error) {
	tmpl, ok := prompts.Default(name)
	if s.prompts != nil {
		if custom, err := s.prompts.Load(name); err == nil && custom != "" {
			tmpl, ok = custom, true
		} else if err != nil {
			logger.Warn("Prompt %q: using built-in: %v", name, err)
		}
	}
	if !ok {
		return "", fmt.Errorf("%w: prompt %q not found", domain.ErrInvalidConfiguration, name)
	}
	return prompts.Render(name, tmpl, data)
}
