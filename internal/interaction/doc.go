// Package interaction models the chat platform's interaction webhook payloads.
//
// Inbound bodies are decoded once, at the HTTP boundary, into one of three
// concrete variants:
//
//   - Ping: the platform's endpoint liveness check (type 1)
//   - Command: an invoked slash command (type 2)
//   - Unsupported: anything else
//
// Downstream code switches on the concrete type and never inspects raw JSON.
//
// Outbound, every authenticated request produces exactly one Reply:
//
//	{"type": 1}
//	{"type": 4, "data": {"content": "...", "flags": 64}}
//
// The ephemeral flag (64) hides the message from everyone but the caller.
package interaction
