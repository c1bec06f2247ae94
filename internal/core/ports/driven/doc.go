// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: Lists, downloads and uploads remote files
//   - TokenProvider: Supplies bearer credentials to a document source
//   - Normaliser: Extracts plain text from one file format
//   - IntegrityChecker: Detects corrupted downloads
//   - Chunker: Splits text into overlapping chunks
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Completes a prompt into an answer
//   - VectorIndex: In-memory similarity search over chunks
//   - IndexStore: Persists and loads the index artifacts as a pair
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
