// Package reply produces the simulated assistant's responses. A reply is
// a random opener paired with a random elaboration from fixed pools,
// standing in for a real model inference call.
package reply

import (
	"math/rand"
	"sync"
)

var openers = []string{
	"That's an interesting perspective! Let me think about that...",
	"I understand what you're asking. Here's my take on it:",
	"Great question! Based on what you've shared:",
	"I can help you with that. Here's what I think:",
	"That's a thoughtful point. Let me elaborate:",
	"I see what you mean. From my understanding:",
	"Excellent question! Here's how I would approach this:",
	"That's worth exploring further. Consider this:",
}

var elaborations = []string{
	"The key factors to consider are complexity, context, and practical application.",
	"This involves multiple layers of analysis and careful consideration of various perspectives.",
	"There are several approaches we could take, each with their own benefits and challenges.",
	"The solution often lies in finding the right balance between different competing priorities.",
	"It's important to look at both the immediate implications and long-term consequences.",
	"This requires a nuanced understanding of the underlying principles and mechanisms.",
	"The most effective strategy usually involves a combination of proven methods and innovative thinking.",
	"Success in this area typically depends on careful planning and adaptive execution.",
}

// Generator composes replies from a private random source. Safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator over the given random source. Tests
// pass a seeded source for deterministic output.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns a reply for the given user message. The input is
// accepted for interface symmetry; selection ignores it today.
func (g *Generator) Generate(userText string) string {
	g.mu.Lock()
	opener := openers[g.rng.Intn(len(openers))]
	elaboration := elaborations[g.rng.Intn(len(elaborations))]
	g.mu.Unlock()

	return opener + "\n\n" + elaboration
}
