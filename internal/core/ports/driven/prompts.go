package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSummarise summarises an uploaded note.
	// Placeholders: {{.Percent}}, {{.Style}}, {{.Note}}.
	PromptSummarise = "summarise"

	// PromptChat answers a question about a note.
	// Placeholders: {{.History}}, {{.Question}}, {{.Note}}.
	PromptChat = "chat"
)
