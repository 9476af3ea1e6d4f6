package llm

import "strings"

// The comparison UI renders raw markdown, so some models carry a heading
// prefix and DeepSeek's chain-of-thought output is split into labeled
// sections. Decoration is the adapter's job; the dispatcher treats all
// adapters identically.

func decorateGemini(text string) string {
	return "# Gemini Pro Response\n\n" + text
}

func decorateMixtral(text string) string {
	return "# Mixtral Response\n\n" + text
}

const finalAnswerSentinel = "Final Answer:"

// decorateDeepSeek splits at the "Final Answer:" sentinel. When the sentinel
// is absent, the whole text is repeated as the final answer, matching the
// comparison UI's expectation of both sections always being present.
func decorateDeepSeek(text string) string {
	thinking, final, found := strings.Cut(text, finalAnswerSentinel)
	if !found {
		final = text
	}
	return "# DeepSeek Response\n\n## Thinking Process\n\n" + thinking + "\n\n## Final Answer\n\n" + final
}
