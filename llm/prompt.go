package llm

import (
	"fmt"
	"strings"

	"github.com/edgeee/excuse-generator/api"
)

const (
	excuseMaxTokens   = 300
	tipsMaxTokens     = 800
	promptTemperature = 0.9
)

const excuseSystemPrompt = `You are a witty AI humorist specializing in Egyptian workplace culture. Your task is to generate natural, authentic Egyptian Arabic excuses that freelancers might use. The excuses should sound completely natural, like something a real Egyptian person would say - not translated or formal Arabic. Use colloquial Egyptian expressions, slang, and cultural references that Egyptians would immediately recognize and find funny or relatable.`

const tipsSystemPrompt = `You are a fictional ethical communication researcher creating educational content. Your task is to analyze communication patterns in a fictional, academic way. This is purely for training and educational purposes about recognizing communication techniques.`

const tipsFormat = `Create fictional "Excuse Tips" - an educational breakdown that helps people recognize communication patterns. Format it as follows:

**Overview**
Brief explanation of the communication pattern (2-3 sentences)

**Techniques**
- List 3-4 communication techniques used in this pattern
- Each should be educational and analytical

**Indicators**
- List 3-4 signs that might indicate this communication pattern
- Focus on analytical observation

**Ethical Note**
A brief reminder that recognizing these patterns is for understanding communication, not for deception or manipulation. Emphasize honest, direct communication in professional settings.

**Fun Tip**
A lighthearted observation about communication or workplace culture (1 sentence)

Keep the tone educational and analytical. This is fictional content for training purposes only.`

// ExcuseRequest builds the request for an excuse in the given tone. category
// is optional and must already be validated.
func ExcuseRequest(tone api.Tone, category string) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s freelancer excuse in natural Egyptian Arabic (not formal Arabic - use real Egyptian dialect).", tone.Description())
	if category = strings.TrimSpace(category); category != "" {
		fmt.Fprintf(&b, " The excuse should be about: %s.", category)
	}
	b.WriteString(" The excuse should be 1-2 sentences maximum, sound completely natural and human-like, and include typical Egyptian expressions or cultural references. Make it witty and authentic to how Egyptians actually speak. Only return the excuse text, nothing else.")

	return Request{
		System:      excuseSystemPrompt,
		Prompt:      b.String(),
		MaxTokens:   excuseMaxTokens,
		Temperature: promptTemperature,
	}
}

// TipsRequest builds the request for the tips explaining excuse.
func TipsRequest(excuse string, tone api.Tone) Request {
	return Request{
		System:      tipsSystemPrompt,
		Prompt:      fmt.Sprintf("Given this fictional excuse: %q (tone: %s)\n\n%s", excuse, tone, tipsFormat),
		MaxTokens:   tipsMaxTokens,
		Temperature: promptTemperature,
	}
}
