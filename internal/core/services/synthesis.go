package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/logger"
)

// StripFences removes a leading ``` or ```json fence line and a trailing
// ``` fence from model output.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the info string ("json", "JSON", ...) up to the first newline.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stringList decodes either a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(stringList, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	*l = out
	return nil
}

type synthesisPayload struct {
	Summary   string     `json:"summary"`
	Answer    string     `json:"answer"`
	KeyPoints stringList `json:"key_points"`
	Reference string     `json:"reference"`
}

// decodeSynthesis parses fenced model output. When the whole text is not
// JSON it retries with the outermost {...} span.
func decodeSynthesis(raw string) (*synthesisPayload, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrSynthesisParse)
	}

	var p synthesisPayload
	err := json.Unmarshal([]byte(text), &p)
	if err == nil {
		return &p, nil
	}

	start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(text[start:end+1]), &p); err2 == nil {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisParse, err)
}

// ParseChatAnswer turns model output into a chat answer. Unparseable
// output yields an empty, degraded answer; the failure is only logged.
func ParseChatAnswer(raw string) *domain.ChatAnswer {
	p, err := decodeSynthesis(raw)
	if err != nil {
		logger.Warn("Chat response: %v", err)
		return &domain.ChatAnswer{Answer: "", Degraded: true}
	}
	return &domain.ChatAnswer{
		Answer:    p.Answer,
		KeyPoints: []string(p.KeyPoints),
		Reference: p.Reference,
	}
}

// ParseSummary turns model output into a summary. Unparseable output
// yields an empty summary with no key points; the raw text is kept in
// Raw for display and the failure is only logged.
func ParseSummary(raw string) *domain.Summary {
	p, err := decodeSynthesis(raw)
	if err != nil {
		logger.Warn("Summary response: %v", err)
		return &domain.Summary{
			Summary:   "",
			KeyPoints: []string{},
			Raw:       strings.TrimSpace(raw),
			Degraded:  true,
		}
	}
	keyPoints := []string(p.KeyPoints)
	if keyPoints == nil {
		keyPoints = []string{}
	}
	return &domain.Summary{
		Summary:   p.Summary,
		KeyPoints: keyPoints,
	}
}
