package interview

import (
	"fmt"
	"strings"
)

// systemDirective is the interviewer persona installed as the first history
// turn of every session.
const systemDirective = `You are an expert technical interviewer conducting a project presentation interview.

CRITICAL: You MUST remember and reference the entire conversation history. Each question should build upon what the student has already explained.

Your tasks:
- Pay close attention to everything the student has said throughout the interview
- Reference their previous explanations when asking new questions (e.g., "You mentioned X earlier...")
- Connect different parts of their presentation together
- Ask follow-up questions that dig deeper into topics they've introduced
- Start with broad understanding questions, then progressively drill into technical details
- Test if they truly understand what they've explained by asking "why" and "how" questions
- Be conversational and show you're actively listening
- Focus on: technical implementation, design decisions, trade-offs, and problem-solving approach

IMPORTANT:
- Each question MUST show awareness of previous answers
- Reference specific things they said before
- Build a coherent interview narrative, not isolated questions
- Keep questions under 25 words but make them specific and contextual

Do NOT:
- Ask generic questions that ignore previous context
- Explain answers or provide solutions
- Ask about something they already explained unless digging deeper`

// openingPromptTmpl composes the first user turn. The "Student said:" and
// "Screen shows:" section headings double as answer markers for digest
// extraction from externally restored history; keep them verbatim.
const openingPromptTmpl = `This is the first interaction. The student just started presenting.

Student said:
%s

Screen shows:
%s

Greet them briefly and ask ONE question about their project to understand what they're building.`

// followupPromptTmpl composes every subsequent user turn.
const followupPromptTmpl = `PREVIOUS CONVERSATION CONTEXT:
%s

STUDENT'S LATEST RESPONSE:
%s

CURRENT SCREEN CONTENT:
%s

Based on:
1. What you've learned from the ENTIRE conversation so far
2. Their LATEST response to your previous question
3. What's currently visible on their screen

Ask ONE follow-up question that:
- Builds upon previous discussion (reference what they said before if relevant)
- Explores deeper into topics they mentioned
- Connects different parts of their explanation
- Tests their understanding of what they've explained

Be specific and show you're paying attention to their previous answers.`

// scorecardPrompt requests the structured end-of-interview evaluation.
const scorecardPrompt = `Based on the entire interview conversation, evaluate the candidate across these dimensions:

1. Technical Depth (1-10): How well do they understand the technical concepts, architecture, and implementation details?

2. Clarity (1-10): How clearly can they explain their project, decisions, and thought process?

3. Originality (1-10): How innovative or creative is their approach or solution?

4. Understanding of Implementation (1-10): How well do they understand what they built and how it works?

Provide a JSON response with scores and constructive feedback:

{
 "technical_depth": <score 1-10>,
 "clarity": <score 1-10>,
 "originality": <score 1-10>,
 "implementation": <score 1-10>,
 "feedback": "<2-3 sentences of constructive feedback highlighting strengths and areas for improvement>"
}

Be fair but honest in your evaluation. Base scores on evidence from the conversation.`

// SystemDirective returns the interviewer persona, optionally scoped to a
// presentation topic.
func SystemDirective(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return systemDirective
	}
	return systemDirective + fmt.Sprintf("\n\nThe student is presenting a project about: %s.", topic)
}

// ComposeOpeningPrompt embeds the first transcript and screen text into the
// opening template.
func ComposeOpeningPrompt(transcript, screenText string) string {
	return fmt.Sprintf(openingPromptTmpl, transcript, screenText)
}

// ComposeFollowupPrompt embeds the rendered digest, latest transcript, and
// latest screen text into the follow-up template.
func ComposeFollowupPrompt(transcript, screenText, digest string) string {
	return fmt.Sprintf(followupPromptTmpl, digest, transcript, screenText)
}
