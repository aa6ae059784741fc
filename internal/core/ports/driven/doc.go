// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion and retrieval to function:
//
//   - Embedder / EmbeddingService: Maps text to vectors
//   - VectorIndex: Persists vectors and answers filtered nearest-neighbour queries
//   - HistoryStore: Keeps bounded per-session conversation turns
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Completion for summarise and chat. Without it only ingest and retrieve work.
//   - PromptStore: Custom prompt templates. Without it built-in prompts are used.
//   - Normaliser / NormaliserRegistry: Text extraction for uploads.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
