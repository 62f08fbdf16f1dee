// Package domain defines the core entities for promptlens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Classification: The kind and language of a block of text
//   - RenderDirective: What the presentation layer needs to draw a block
//   - AttachmentValue / AttachmentMap: Pasted payloads keyed by placeholder
//   - FormatCacheEntry: Status of one reformat request per fingerprint
//   - TranscriptEntry: One captured prompt from the history feed
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
