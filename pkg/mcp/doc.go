// Package mcp exposes the Claude Code node as a Model Context Protocol
// tool named claude_code. The server can be mounted on the HTTP server
// (streamable HTTP) or run over stdio.
package mcp
