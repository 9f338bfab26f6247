package reagent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSON cleans an LLM response to extract valid JSON. Models routinely
// wrap JSON in markdown code blocks or surround it with prose even when a
// JSON response format is requested.
//
// This function uses heuristics to find JSON boundaries and is not a full
// JSON parser. It handles { and } inside string literals and common escape
// sequences, which is sufficient for typical LLM-generated responses.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	// Try to extract JSON from markdown code blocks first
	matches := codeBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	firstBrace := strings.Index(text, "{")
	firstBracket := strings.Index(text, "[")

	if firstBrace == -1 && firstBracket == -1 {
		return text // No JSON found, return original
	}

	var start int
	var expectedClosing rune
	if firstBracket == -1 || (firstBrace != -1 && firstBrace < firstBracket) {
		start = firstBrace
		expectedClosing = '}'
	} else {
		start = firstBracket
		expectedClosing = ']'
	}

	depth := 0
	inString := false
	i := start

	for i < len(text) {
		char := rune(text[i])

		if inString {
			if char == '\\' {
				i += 2 // Skip both the backslash and the escaped character
				continue
			} else if char == '"' {
				inString = false
			}
		} else {
			switch char {
			case '"':
				inString = true
			case '{':
				if expectedClosing == '}' {
					depth++
				}
			case '}':
				if expectedClosing == '}' {
					depth--
					if depth == 0 {
						candidate := text[start : i+1]
						if isLikelyCompleteJSON(candidate) {
							return candidate
						}
					}
				}
			case '[':
				if expectedClosing == ']' {
					depth++
				}
			case ']':
				if expectedClosing == ']' {
					depth--
					if depth == 0 {
						candidate := text[start : i+1]
						if isLikelyCompleteJSON(candidate) {
							return candidate
						}
					}
				}
			}
		}
		i++
	}

	// No complete JSON found. If the text looks truncated, keep the original
	// so callers can decide how to degrade.
	if depth > 0 || inString {
		return text
	}

	return text[start:]
}

// isLikelyCompleteJSON performs basic validation to check if the extracted
// text looks like complete JSON.
func isLikelyCompleteJSON(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return false
	}

	if (text[0] == '{' && text[len(text)-1] == '}') ||
		(text[0] == '[' && text[len(text)-1] == ']') {
		var temp any
		return json.Unmarshal([]byte(text), &temp) == nil
	}

	return false
}
