package markov

import (
	"fmt"
	"strings"
)

// Role identifies the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the speaker label used when a message is rendered into the corpus
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// Message is one prior turn of the conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Render returns the message as "<Role>: <content>"
func (m Message) Render() string {
	return fmt.Sprintf("%s: %s", m.Role.Label(), m.Content)
}

// RenderConversation renders messages in chronological order, one per line
func RenderConversation(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, msg.Render())
	}
	return strings.Join(lines, "\n")
}
