// Package services implements the driving port interfaces and the email
// RAG pipelines: classification, indexing, context assembly and answering.
// Services hold injected adapters only and keep no package state.
package services
