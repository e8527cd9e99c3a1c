package llm

import "testing"

func TestRoleConstants(t *testing.T) {
	// The Role type must be usable in declarations and carry the exact wire
	// values the chat backends expect.
	for _, tc := range []struct {
		role Role
		want string
	}{
		{RoleSystem, "system"},
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
	} {
		if tc.role != tc.want {
			t.Errorf("role = %q, want %q", tc.role, tc.want)
		}
	}

	msg := Message{Role: RoleAssistant, Content: "next question"}
	if msg.Role != RoleAssistant {
		t.Errorf("Message.Role = %q, want %q", msg.Role, RoleAssistant)
	}
}
