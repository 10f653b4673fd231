// Package domain defines the core business entities for mailrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Email: A stored message with its classification
//   - Category: A user-editable classification label
//   - Chunk: An indexed slice of an email body
//   - ClassificationResult: The outcome of classifying one email
//   - RetrievedItem: A vector index hit
//   - Answer: A grounded reply with its sources
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
