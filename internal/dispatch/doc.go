// Package dispatch turns an authenticated interaction into exactly one reply.
//
// The dispatcher owns the command-level state machine:
//
//  1. Ping → Pong (no further checks)
//  2. Anything that is not a command → "unsupported" message
//  3. Command invoked in a guild → ephemeral "DM me" notice
//  4. No caller identity → "missing user information"
//  5. Command table lookup → handler, or "unknown command"
//
// Handlers validate arguments, make at most one store call, and build the
// reply. Validation failures are echoed to the caller verbatim; store
// failures are reported with a generic message and logged with their cause.
//
// Built-in commands:
//   - add <name> <birthday>: upsert a record keyed on (caller, name)
//   - list: all of the caller's records, sorted by name
//   - remove <name>: delete the caller's record called name
//
// New commands are added with Register without touching the outer sequence.
package dispatch
