// ABOUTME: Capability (agent role) definitions and parsing
// ABOUTME: Closed set of analysis capabilities with fallback to free-form query

package agent

import "strings"

// Capability selects the behavior of the external analysis agent for a
// request. The wire format is a string field, but internally the set is
// closed.
type Capability string

const (
	// CapabilityQuery is the free-form security query role, and the default.
	CapabilityQuery Capability = "simple_query_agent"

	// CapabilityCodeReview reviews a codebase for security vulnerabilities.
	CapabilityCodeReview Capability = "code_reviewer"

	// CapabilityThreatModel produces a threat model for a described system.
	CapabilityThreatModel Capability = "threat_modeler"
)

// ParseCapability maps a wire string to a known capability. Unrecognized
// values fall back to CapabilityQuery rather than failing - clients send
// free-text role names and the dashboard must keep working when they drift.
func ParseCapability(s string) Capability {
	switch Capability(strings.TrimSpace(s)) {
	case CapabilityCodeReview:
		return CapabilityCodeReview
	case CapabilityThreatModel:
		return CapabilityThreatModel
	case CapabilityQuery:
		return CapabilityQuery
	default:
		return CapabilityQuery
	}
}

// String returns the wire representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// TerminatorCommand is the reserved message that ends a chat session.
const TerminatorCommand = "/end"

// IsTerminator reports whether the message is the session terminator:
// a case-insensitive exact match on the reserved command, ignoring
// surrounding whitespace.
func IsTerminator(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), TerminatorCommand)
}
