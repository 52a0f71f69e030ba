package pipeline

import "sync"

// Conversation is the ordered turn history shared read/write across
// stages. All access is serialized by a single mutex; Append encapsulates
// the same-role-collapse and spacer-insertion rules so no two adjacent
// entries ever share a role, directly mirroring the teacher's
// ConversationSession.AddMessage and the original implementation's
// Conversation.append (original_source/src/conversation.py).
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds text under role, collapsing into the previous turn if it
// shares the same role. When collapsing, a single space is inserted
// before the new text unless it begins with '.', '!', '?' or ','.
func (c *Conversation) Append(role Role, text string) []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.turns); n > 0 && c.turns[n-1].Role == role {
		c.turns[n-1].Text = collapse(c.turns[n-1].Text, text)
	} else {
		c.turns = append(c.turns, Turn{Role: role, Text: text})
	}
	return c.snapshotLocked()
}

func collapse(prior, next string) string {
	spacer := ""
	if prior != "" && !startsWithNoSpace(next) {
		spacer = " "
	}
	return prior + spacer + next
}

func startsWithNoSpace(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '.', '!', '?', ',':
		return true
	default:
		return false
	}
}

// Turns returns a copy of the current turn list.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Reset clears all turns.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
