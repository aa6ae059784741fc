// Package domain defines the core business entities for Notewise.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text submitted for indexing under an owner
//   - ChunkRecord: A bounded segment of a document, the unit of retrieval
//   - QueryResult: A ranked match returned by the vector store
//   - Turn: One message in a per-document conversation
//   - Summary, ChatAnswer: Structured results of answer synthesis
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
