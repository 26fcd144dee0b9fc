package enrichment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
)

const classificationSystemPrompt = `You are a content analyst for a prompt management platform.
Classify the given exchange and score the quality of the user's prompt.
Respond with a single JSON object and nothing else, using exactly these fields:
{
  "is_work_related": bool,
  "theme": string,
  "intent": string,
  "quality": {
    "quality_score": int (0-100),
    "clarity_score": int (0-5),
    "context_score": int (0-5),
    "specificity_score": int (0-5),
    "actionability_score": int (0-5)
  },
  "feedback": {
    "summary": string,
    "strengths": [string],
    "improvements": [string],
    "improved_prompt_example": string
  }
}`

const riskSystemPrompt = `You are a risk analyst for a prompt management platform.
Assess the given content for risk in each of these six categories:
pii, security, confidential, misinformation, data_leakage, compliance.
Respond with a single JSON object and nothing else, using exactly these fields:
{
  "categories": {
    "<category>": {
      "level": "none" | "low" | "medium" | "high" | "critical",
      "score": number (0-100),
      "detected": bool,
      "details": string
    }
  },
  "risk_summary": [string]
}
Include all six categories even when nothing was detected.`

// buildClassificationPrompt interpolates the (already truncated) texts into
// the fixed classification template.
func buildClassificationPrompt(userMessage, assistantResponse string) transport.Prompt {
	var b strings.Builder
	b.WriteString("User message:\n")
	b.WriteString(userMessage)
	if assistantResponse != "" {
		b.WriteString("\n\nAssistant response:\n")
		b.WriteString(assistantResponse)
	}
	return transport.Prompt{
		System: classificationSystemPrompt,
		User:   b.String(),
	}
}

// buildRiskPrompt interpolates the (already truncated) content into the fixed
// risk template.  Context entries are rendered in sorted key order so the
// prompt is deterministic for a given input.
func buildRiskPrompt(content, role string, context map[string]string) transport.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Author role: %s\n", role)
	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, context[k])
		}
	}
	b.WriteString("\nContent:\n")
	b.WriteString(content)
	return transport.Prompt{
		System: riskSystemPrompt,
		User:   b.String(),
	}
}
