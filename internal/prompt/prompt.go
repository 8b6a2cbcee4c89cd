package prompt

import (
	"fmt"
	"unicode/utf8"

	"document-chat/internal/models"
)

const DefaultMaxContextChars = 8000

// BuildContext keeps text of up to maxChars characters as is. Longer text is
// cut to its first and last maxChars/2 characters joined by a separator.
func BuildContext(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	half := maxChars / 2
	return string(runes[:half]) + models.ContextSeparator + string(runes[len(runes)-half:])
}

type Assembler struct {
	SystemMessage string
	UserTemplate  string
}

// NewAssembler falls back to the built-in messages for empty arguments.
func NewAssembler(systemMessage, userTemplate string) *Assembler {
	if systemMessage == "" {
		systemMessage = models.SystemMessage
	}
	if userTemplate == "" {
		userTemplate = models.UserPromptTemplate
	}
	return &Assembler{SystemMessage: systemMessage, UserTemplate: userTemplate}
}

// Assemble returns the system and user messages. The context is inserted
// verbatim.
func (a *Assembler) Assemble(context string) (string, string) {
	return a.SystemMessage, fmt.Sprintf(a.UserTemplate, context)
}
