package chat

import (
	"context"
	"math/rand/v2"

	"github.com/spigell/worker-finder/internal/ai"
)

var cannedReplies = []string{
	"Thanks for reaching out! I'd be happy to help with your project.",
	"Could you provide more details about the work required?",
	"I'm available for the dates you mentioned. Let's discuss the specifics.",
	"I have experience with similar projects. When would you like to start?",
}

// CannedResponder picks one of a fixed set of replies at random.
type CannedResponder struct {
	pick func(n int) int
}

func NewCannedResponder() *CannedResponder {
	return &CannedResponder{pick: rand.IntN}
}

func (r *CannedResponder) Reply(_ context.Context, _ ai.ReplyRequest) (string, error) {
	return cannedReplies[r.pick(len(cannedReplies))], nil
}
