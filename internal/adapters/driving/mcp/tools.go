package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// SummarizeInput is the input schema for the summarize tool.
type SummarizeInput struct {
	DocumentID    string `json:"document_id,omitempty" jsonschema:"id of the note; generated when empty"`
	OwnerID       string `json:"owner_id" jsonschema:"the user the note belongs to"`
	Text          string `json:"text" jsonschema:"full text of the note"`
	Style         string `json:"style,omitempty" jsonschema:"summary style such as concise or bullet"`
	TargetPercent int    `json:"target_percent,omitempty" jsonschema:"summary length as a percentage of the note (default 20)"`
}

// ChatInput is the input schema for the chat tool.
type ChatInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of a previously summarised or ingested note"`
	OwnerID    string `json:"owner_id" jsonschema:"the user asking"`
	Question   string `json:"question" jsonschema:"the question about the note"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"id of the note; generated when empty"`
	OwnerID    string `json:"owner_id" jsonschema:"the user the note belongs to"`
	Text       string `json:"text" jsonschema:"full text of the note"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	DocumentID string `json:"document_id" jsonschema:"the note to search within"`
	OwnerID    string `json:"owner_id,omitempty" jsonschema:"restrict results to this owner"`
	Query      string `json:"query,omitempty" jsonschema:"search text; empty returns context without a question"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of passages (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput represents a single retrieved chunk.
type PassageOutput struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ResetHistoryInput is the input schema for the reset_history tool.
type ResetHistoryInput struct {
	DocumentID string `json:"document_id" jsonschema:"the note the conversation is about"`
	OwnerID    string `json:"owner_id" jsonschema:"the user whose conversation is cleared"`
}

// ResetHistoryOutput is the output schema for the reset_history tool.
type ResetHistoryOutput struct {
	Reset bool `json:"reset"`
}

// registerTools registers all tool handlers with the MCP server.
// Tools backed by optional ports are only offered when the port is set.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize",
		Description: "Summarise a note and index it for later questions",
	}, s.handleSummarize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Ask a question about a note; the conversation is remembered per user and note",
	}, s.handleChat)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Index a note without summarising it",
		}, s.handleIngest)
	}

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "retrieve",
			Description: "Return the passages of a note most similar to a query",
		}, s.handleRetrieve)
	}

	if s.ports.Conversation != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reset_history",
			Description: "Forget the conversation a user had about a note",
		}, s.handleResetHistory)
	}
}

func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, domain.Summary, error) {
	summary, err := s.ports.Notes.Summarize(ctx, driving.SummarizeRequest{
		DocumentID:    input.DocumentID,
		OwnerID:       input.OwnerID,
		Style:         domain.SummaryStyle(input.Style),
		TargetPercent: input.TargetPercent,
		Text:          input.Text,
	})
	if err != nil {
		return nil, domain.Summary{}, toolError(err)
	}
	return nil, *summary, nil
}

func (s *Server) handleChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatInput,
) (*mcp.CallToolResult, domain.ChatAnswer, error) {
	answer, err := s.ports.Notes.Chat(ctx, driving.ChatRequest{
		DocumentID: input.DocumentID,
		OwnerID:    input.OwnerID,
		Question:   input.Question,
	})
	if err != nil {
		return nil, domain.ChatAnswer{}, toolError(err)
	}
	return nil, *answer, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, driving.IngestResult, error) {
	result, err := s.ports.Ingest.Ingest(ctx, driving.IngestRequest{
		OwnerID:    input.OwnerID,
		DocumentID: input.DocumentID,
		Collection: domain.CollectionNotes,
		Text:       input.Text,
	})
	if err != nil {
		return nil, driving.IngestResult{}, toolError(err)
	}
	return nil, *result, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Retrieval.Retrieve(ctx, driving.RetrieveRequest{
		DocumentID: input.DocumentID,
		OwnerID:    input.OwnerID,
		Query:      input.Query,
		TopK:       input.TopK,
	})
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}

	output := RetrieveOutput{
		Results: make([]PassageOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = PassageOutput{
			ID:    results[i].ID,
			Text:  results[i].Text,
			Score: results[i].Score,
		}
	}
	return nil, output, nil
}

func (s *Server) handleResetHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResetHistoryInput,
) (*mcp.CallToolResult, ResetHistoryOutput, error) {
	key := domain.SessionKey{OwnerID: input.OwnerID, DocumentID: input.DocumentID}
	if err := s.ports.Conversation.Reset(ctx, key); err != nil {
		return nil, ResetHistoryOutput{}, toolError(err)
	}
	return nil, ResetHistoryOutput{Reset: true}, nil
}
