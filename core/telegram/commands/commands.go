package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage overrides the command name in help output, e.g. "/pending".
	Usage        string
	ReviewerOnly bool
	Hidden       bool
	Aliases      []string
}
