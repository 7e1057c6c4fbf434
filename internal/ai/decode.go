package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"lead-scoring/backend/internal/model"
)

const (
	defaultReasoning     = "No reasoning provided"
	malformedPrefix      = "AI returned non-JSON output: "
	defaultPreviewLength = 200
)

// Some models wrap their chain of thought in <think> tags ahead of the answer.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Decode extracts an intent and reasoning from raw model output. It never
// fails: unparseable text yields a Medium intent with a preview of raw.
func Decode(raw string, previewLength int) Result {
	if previewLength <= 0 {
		previewLength = defaultPreviewLength
	}

	text := thinkBlock.ReplaceAllString(raw, "")
	text = unwrapCodeFence(strings.TrimSpace(text))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload == nil {
		return Result{
			Intent:    model.IntentMedium,
			Reasoning: malformedPrefix + truncate(raw, previewLength),
			Outcome:   OutcomeMalformed,
		}
	}

	result := Result{
		Intent:    model.IntentMedium,
		Reasoning: defaultReasoning,
		Outcome:   OutcomeParsed,
	}
	if label, ok := stringField(payload, "intent_label"); ok {
		if intent, known := model.ParseIntent(label); known {
			result.Intent = intent
		}
	}
	if value, present := payload["reasoning"]; present {
		if reasoning, ok := stringField(payload, "reasoning"); ok {
			result.Reasoning = reasoning
		} else if string(value) != "null" {
			result.Reasoning = string(value)
		}
	}
	return result
}

func stringField(payload map[string]json.RawMessage, key string) (string, bool) {
	value, ok := payload[key]
	if !ok {
		return "", false
	}
	var out string
	if err := json.Unmarshal(value, &out); err != nil {
		return "", false
	}
	return out, true
}

// unwrapCodeFence drops a surrounding ``` fence, with or without a language tag.
func unwrapCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexRune(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// truncate shortens s to limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
