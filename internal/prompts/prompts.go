package prompts

import (
	"fmt"
	"strings"
)

// DefaultQuestionCount is the size of a generated question set.
const DefaultQuestionCount = 20

const transcriptHeader = "Transcript:\n"

const notesSystem = `You turn lecture transcripts into study notes. Reply with a single JSON object and nothing else.`

const notesInstructions = `Write study notes for the transcript below.

Cover, in order:
- who is speaking, when the transcript says so ("Unknown" otherwise)
- each topic with a heading, a short summary and its key points
- for every key point: an explanation, examples and why it matters
- related reading or tools worth looking up
- the main takeaways and concrete follow-up exercises

Use this JSON shape:
{
  "title": "string",
  "overview": "string",
  "speakers": [{"name": "string", "role": "string", "key_contributions": ["string"]}],
  "topics": [{
    "heading": "string",
    "summary": "string",
    "key_points": [{"point": "string", "explanation": "string", "examples": ["string"], "importance": "string"}],
    "additional_insights": ["string"],
    "recommended_resources": [{"type": "book|course|article|video|tool|documentation", "title": "string", "description": "string", "url": "string"}]
  }],
  "key_takeaways": ["string"],
  "action_items": ["string"],
  "further_learning": {"beginner": ["string"], "intermediate": ["string"], "advanced": ["string"]}
}`

const questionsSystem = `You write exam questions with model answers from lecture transcripts. Reply with a single JSON object and nothing else.`

const questionsInstructions = `Write exactly %d questions with answers about the transcript below.

Spread them evenly over concepts, application, critical thinking and synthesis, from easy to hard.
Every question must be answerable from the transcript. Answers take two to four sentences and explain the reasoning.

Use this JSON shape:
{
  "topic": "string",
  "total_questions": %d,
  "difficulty_breakdown": {"easy": 0, "medium": 0, "hard": 0},
  "questions": [{
    "id": 1,
    "question": "string",
    "answer": "string",
    "difficulty": "easy|medium|hard",
    "category": "concept|application|critical_thinking|synthesis",
    "key_terms": ["string"],
    "related_topics": ["string"]
  }],
  "study_tips": ["string"],
  "quiz_summary": {"main_themes": ["string"], "prerequisites": ["string"], "next_steps": ["string"]}
}`

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Notes builds the structured-notes prompt. The transcript is appended unchanged.
func Notes(transcript string) Prompt {
	return Prompt{System: notesSystem, User: withTranscript(notesInstructions, transcript)}
}

// Questions builds the question-set prompt; count <= 0 uses DefaultQuestionCount.
func Questions(transcript string, count int) Prompt {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	return Prompt{
		System: questionsSystem,
		User:   withTranscript(fmt.Sprintf(questionsInstructions, count, count), transcript),
	}
}

func withTranscript(instructions, transcript string) string {
	var b strings.Builder
	b.Grow(len(instructions) + len(transcriptHeader) + len(transcript) + 2)
	b.WriteString(instructions)
	b.WriteString("\n\n")
	b.WriteString(transcriptHeader)
	b.WriteString(transcript)
	return b.String()
}
