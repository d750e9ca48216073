// ABOUTME: Stateful conversation handle carrying accumulated context for an agent
// ABOUTME: Owned by a session; exchanges build up so the agent keeps its memory

package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options configures a conversation with the external agent.
type Options struct {
	Role        Capability
	Environment string
	Verbose     bool
}

// Exchange is one completed user/agent turn.
type Exchange struct {
	Message  string
	Response string
	At       time.Time
}

// Conversation is the opaque handle to a live agent context. It accumulates
// exchanges so every invocation carries the full conversation memory.
// Conversations are expensive to rebuild, which is why sessions keep them
// alive across requests.
type Conversation struct {
	mu        sync.Mutex
	id        string
	opts      Options
	exchanges []Exchange
}

// NewConversation creates an empty conversation with the given options.
func NewConversation(opts Options) *Conversation {
	if opts.Role == "" {
		opts.Role = CapabilityQuery
	}
	return &Conversation{
		id:   uuid.New().String(),
		opts: opts,
	}
}

// ID returns the conversation's unique identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Options returns the conversation's configuration.
func (c *Conversation) Options() Options {
	return c.opts
}

// Append records a completed exchange.
func (c *Conversation) Append(message, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.exchanges = append(c.exchanges, Exchange{
		Message:  message,
		Response: response,
		At:       time.Now(),
	})
}

// History returns a copy of the accumulated exchanges.
func (c *Conversation) History() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Exchange, len(c.exchanges))
	copy(out, c.exchanges)
	return out
}

// Len returns the number of completed exchanges.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.exchanges)
}
