// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - CompletionService: Chat completion, optionally constrained to one JSON object
//   - EmbeddingService: Order-preserving batch text embedding
//   - VectorIndex: Chunk storage and cosine similarity search
//   - EmailStore: Durable email records
//   - CategoryStore: Category persistence and reassignment
//   - PromptStore: User-editable prompt templates
//   - ConfigStore: Application configuration
//
// Completion and embedding calls are single attempt. Adapters return
// *domain.CompletionError so callers can tell rate limiting, rejected
// credentials, timeouts and other failures apart.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
