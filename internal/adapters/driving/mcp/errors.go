// Package mcp provides an MCP (Model Context Protocol) server adapter for mailrag.
// It lets assistants ask questions over the mailbox and push new emails in.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
