// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval-augmented pipeline lives here: VectorStore wraps an
// Embedder and a VectorIndex, IngestService chunks and stores documents
// under a per-document lock, RetrievalService runs document-scoped
// queries, ConversationManager bounds per-session history, and
// NoteService assembles prompts for summarise and chat.
//
// Services are pure Go with no CGO dependencies.
package services
