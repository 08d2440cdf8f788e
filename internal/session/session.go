// Package session implements the concurrent session manager: ULID-keyed
// sessions with per-session locking, atomic filesystem persistence, and
// prefix-summarization compaction.
package session

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single turn in a session's transcript.
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewMessage creates a Message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// Session is the persisted unit of conversation state.
type Session struct {
	ID         string    `json:"id"`
	WorkingDir string    `json:"working_dir"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// ParentID is the session this one was forked from, if any.
	ParentID string `json:"parent_id,omitempty"`

	// Workflow names the workflow run this session belongs to, if any
	// (e.g. a `sah flow run` invocation driving this conversation).
	Workflow string `json:"workflow,omitempty"`
	// CurrentState is the workflow's current state name, when Workflow is
	// set; meaningless otherwise.
	CurrentState string `json:"current_state,omitempty"`

	// CompactionCount is how many times this session has been compacted.
	// The compaction summary itself is not a separate field: it is stored
	// as Messages[0] with Role "system" once compaction has run.
	CompactionCount int `json:"compaction_count"`
	// LastCompactionRatio is compacted-size/original-size from the most
	// recent compaction (e.g. 0.2 means the transcript shrank to 20% of
	// its prior estimated token count), used for aggregate stats.
	LastCompactionRatio float64    `json:"last_compaction_ratio,omitempty"`
	LastCompactionAt    *time.Time `json:"last_compaction_at,omitempty"`
}

// AddMessage appends msg and bumps UpdatedAt.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
}

// idGenerator serializes access to a monotonic ULID entropy source, which
// is not itself safe for concurrent use, so that IDs minted by concurrent
// CreateSession calls still sort in creation order.
type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

func defaultNow() time.Time { return time.Now() }
