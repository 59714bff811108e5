package generator

import (
	"fmt"
	"strings"
)

// Level is the requested question difficulty.
type Level string

const (
	LevelEasy   Level = "Easy"
	LevelMedium Level = "Medium"
	LevelHard   Level = "Hard"
)

// Levels lists the difficulty choices offered by the UI, in display order.
var Levels = []Level{LevelEasy, LevelMedium, LevelHard}

var levelGuidance = map[Level]string{
	LevelEasy:   "basic concepts, definitions, and straightforward applications",
	LevelMedium: "applied knowledge, analysis, and moderate problem-solving",
	LevelHard:   "complex analysis, synthesis, evaluation, and advanced problem-solving",
}

// BuildPrompt turns (topic, count, level) into the instruction string sent
// to the model. It is pure and deterministic: identical arguments always
// produce identical output. An unrecognized level falls back to a generic
// guidance line rather than failing.
func BuildPrompt(topic string, count int, level Level) string {
	guidance, ok := levelGuidance[level]
	if !ok {
		guidance = "appropriate for the selected level"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert educator and assessment designer. Create EXACTLY %d high-quality multiple-choice questions about %q.\n\n", count, topic)
	sb.WriteString("REQUIREMENTS:\n")
	fmt.Fprintf(&sb, "- Difficulty Level: %s (%s)\n", level, guidance)
	sb.WriteString("- Each question must have exactly 4 options (A, B, C, D)\n")
	sb.WriteString("- Only ONE correct answer per question\n")
	sb.WriteString("- Include a clear, educational explanation for each correct answer\n")
	sb.WriteString("- Questions should be well-structured, clear, and unambiguous\n")
	sb.WriteString("- Avoid trick questions or overly complex language\n")
	sb.WriteString("- Cover different aspects of the topic when possible\n\n")
	sb.WriteString("FORMATTING RULES:\n")
	sb.WriteString("- Use consistent numbering (1., 2., 3., etc.)\n")
	sb.WriteString("- Label options as A), B), C), D)\n")
	sb.WriteString("- After the options, add an \"Answer:\" line with the correct letter\n")
	sb.WriteString("- Start explanations with \"Explanation:\"\n")
	sb.WriteString("- Keep explanations concise but informative\n\n")
	sb.WriteString("EXAMPLE FORMAT:\n")
	sb.WriteString("1. What is the primary function of mitochondria in cells?\n")
	sb.WriteString("A) Protein synthesis\n")
	sb.WriteString("B) Energy production\n")
	sb.WriteString("C) DNA storage\n")
	sb.WriteString("D) Waste removal\n\n")
	sb.WriteString("Answer: B\n")
	sb.WriteString("Explanation: Mitochondria produce ATP through cellular respiration, providing energy for cellular processes.\n\n")
	fmt.Fprintf(&sb, "NOW GENERATE %d QUESTIONS ABOUT: %s\n", count, topic)
	return sb.String()
}
