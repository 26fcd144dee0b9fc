package enrichment

import "strings"

// RepairJSON turns the model's raw reply into a candidate JSON document.  The
// repair is a deliberate heuristic covering the two deviations models
// actually produce: markdown code fencing around the object, and a single
// missing opening or closing brace.  Interior corruption (truncated nested
// objects, trailing commas) is left untouched so it surfaces as a decode
// failure and consumes the retry budget.
//
// Steps, in order:
//  1. Trim surrounding whitespace.
//  2. If the text opens with a ``` fence, drop the fence's opening line and
//     the closing fence line.
//  3. Prepend "{" if the text does not start with one; append "}" if it does
//     not end with one.
func RepairJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		// Drop the opening fence line ("```" or "```json").
		lines = lines[1:]
		// Drop the closing fence line if present.
		for i := len(lines) - 1; i >= 0; i-- {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "```") {
				lines = lines[:i]
			}
			break
		}
		s = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	if !strings.HasSuffix(s, "}") {
		s = s + "}"
	}
	return s
}
