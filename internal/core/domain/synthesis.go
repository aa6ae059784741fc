package domain

// SummaryStyle is a free-form style hint for summaries (e.g. "bullet", "concise").
type SummaryStyle string

// DefaultSummaryStyle is used when the caller supplies none.
const DefaultSummaryStyle SummaryStyle = "concise"

// DefaultTargetPercent is the default summary length relative to the source.
const DefaultTargetPercent = 20

// Summary is the structured result of the summarize operation.
type Summary struct {
	// DocumentID is the document that was summarised and ingested.
	DocumentID string `json:"document_id,omitempty"`

	// Summary is the summary text. Empty when the model output was unparseable.
	Summary string `json:"summary"`

	// KeyPoints are the main points of the document. Never nil.
	KeyPoints []string `json:"key_points"`

	// Raw holds the unparsed model output when parsing failed.
	Raw string `json:"raw,omitempty"`

	// Degraded is true when the result is a parse-failure fallback.
	Degraded bool `json:"degraded,omitempty"`
}

// ChatAnswer is the structured result of the chat operation.
type ChatAnswer struct {
	// Answer is the conversational reply. Empty when the model output was unparseable.
	Answer string `json:"answer"`

	// KeyPoints optionally lists supporting points.
	KeyPoints []string `json:"key_points,omitempty"`

	// Reference optionally names the part of the document the answer came from.
	Reference string `json:"reference,omitempty"`

	// Degraded is true when the result is a parse-failure fallback.
	Degraded bool `json:"degraded,omitempty"`
}
