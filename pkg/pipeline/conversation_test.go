package pipeline

import "testing"

func TestConversationCollapseSameRole(t *testing.T) {
	c := NewConversation()
	c.Append(RoleAssistant, "hello")
	turns := c.Append(RoleAssistant, "world")

	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Text != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", turns[0].Text)
	}
}

func TestConversationCollapseNoSpaceBeforePunctuation(t *testing.T) {
	c := NewConversation()
	c.Append(RoleAssistant, "hello")
	turns := c.Append(RoleAssistant, ", world")

	if turns[0].Text != "hello, world" {
		t.Fatalf("expected %q, got %q", "hello, world", turns[0].Text)
	}
}

func TestConversationNewTurnOnRoleChange(t *testing.T) {
	c := NewConversation()
	c.Append(RoleUser, "hi")
	turns := c.Append(RoleAssistant, "hello")

	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Fatalf("unexpected roles: %+v", turns)
	}
}

func TestConversationReset(t *testing.T) {
	c := NewConversation()
	c.Append(RoleUser, "hi")
	c.Reset()
	if len(c.Turns()) != 0 {
		t.Fatalf("expected empty conversation after reset")
	}
}
