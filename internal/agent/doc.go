// Package agent is the boundary to the external application-security
// analysis agent.
//
// The agent itself is an opaque capability. The gateway talks to it through
// the Runner interface; HTTPRunner is the production implementation and
// StubRunner exists for tests.
//
// # Capabilities
//
// A request selects one of a closed set of capabilities (roles):
//
//   - simple_query_agent: free-form security query (the default)
//   - code_reviewer: review a codebase for vulnerabilities
//   - threat_modeler: produce a threat model for a described system
//
// Unrecognized role strings fall back to the default rather than failing.
//
// # Conversations
//
// A Conversation is the stateful handle a session owns: it accumulates
// user/agent exchanges so the agent keeps its memory across requests. The
// session registry keys conversations by user id.
//
// # Invocation Contract
//
// The Facade validates the message (non-empty after trimming), dispatches to
// the Runner, and requires the answer through the structured return channel.
// An empty reply is an execution failure - responses are never recovered
// from logs or console output.
package agent
