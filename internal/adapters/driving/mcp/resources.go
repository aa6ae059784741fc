package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for notewise resources.
	uriScheme = "notewise://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "Collections notes and chat history are indexed into",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	if s.ports.Conversation != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "history/{ownerId}/{documentId}",
			Name:        "conversation-history",
			Description: "Transcript of a user's conversation about a note",
			MIMEType:    "text/plain",
		}, s.handleHistoryResource)
	}
}

// handleCollectionsResource lists the well-known collections.
func (s *Server) handleCollectionsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type collectionInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	infos := []collectionInfo{
		{Name: domain.CollectionNotes, Description: "chunks of summarised and ingested notes"},
		{Name: domain.CollectionChatHistory, Description: "question and answer exchanges"},
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collections: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource renders the conversation for one session.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	key, ok := extractSessionKey(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	transcript, err := s.ports.Conversation.Render(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("rendering history: %w", toolError(err))
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     transcript,
		}},
	}, nil
}

// extractSessionKey parses notewise://history/{ownerId}/{documentId}.
func extractSessionKey(uri string) (domain.SessionKey, bool) {
	const prefix = uriScheme + "history/"

	if !strings.HasPrefix(uri, prefix) {
		return domain.SessionKey{}, false
	}

	owner, document, ok := strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	if !ok || owner == "" || document == "" || strings.Contains(document, "/") {
		return domain.SessionKey{}, false
	}
	return domain.SessionKey{OwnerID: owner, DocumentID: document}, true
}
