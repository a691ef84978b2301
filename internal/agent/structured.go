package agent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// The remote service is prompted to return structured data but may wrap
// it in commentary or markdown. Extraction is an ordered chain of
// fallible strategies; the first that parses wins.

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

const previewLen = 200

// CompleteStructured issues a completion and decodes the response into
// target. Parse failures are surfaced as a *ParseError and are never
// retried at the transport level.
func (c *Client) CompleteStructured(ctx context.Context, prompt string, opts Options, target any) error {
	raw, err := c.Complete(ctx, prompt, opts)
	if err != nil {
		return err
	}
	return ExtractJSON(raw, target)
}

// ExtractJSON decodes a possibly-wrapped JSON payload from free-form
// model output. Strategies, in order: the whole response; the content of
// a fenced code block; the outermost balanced brace span.
func ExtractJSON(raw string, target any) error {
	trimmed := strings.TrimSpace(raw)

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(m[1]), target); err == nil {
			return nil
		}
	}

	if span, ok := balancedBraceSpan(trimmed); ok {
		if err := json.Unmarshal([]byte(span), target); err == nil {
			return nil
		}
	}

	return &ParseError{
		Preview: truncate(trimmed, previewLen),
		Err:     directErr,
	}
}

// balancedBraceSpan returns the span from the first '{' to its matching
// '}', tracking string literals so braces inside values do not skew the
// depth count.
func balancedBraceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
