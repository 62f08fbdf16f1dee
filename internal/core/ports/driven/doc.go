// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ConfigStore: Application configuration
//   - TranscriptSource: The captured prompt history feed
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Formatter: Remote reformatting. Without it every format request fails soft
//     and the original text is shown.
//   - LLMService: Language model backing the formatter.
//   - FormatResultStore: Persistent hash-keyed reformat results.
//   - FormatObserver: Reformat metrics.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
