package chat

import (
	"context"
	"errors"
	"iter"

	"github.com/charmbracelet/log"
)

// streamErrorReply is shown in place of a reply when the transport fails.
// It is surfaced as ordinary assistant text so a flaky connection degrades
// to a message instead of tearing down the UI.
const streamErrorReply = "Sorry, I couldn't reach the model just now. Please try again."

// Consume wraps a session stream into a fail-safe fragment sequence.
// Fragments are passed through in delivery order; units carrying neither
// text nor citations are suppressed. If the transport errors, either while
// opening the stream or mid-reply, the sequence yields exactly one synthetic
// fragment with a user-facing diagnostic and then ends. A context
// cancellation ends the sequence silently.
func Consume(ctx context.Context, s Session, text string) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		for frag, err := range s.Stream(ctx, text) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Error("stream transport failed", "err", err)
				yield(Fragment{Text: streamErrorReply})
				return
			}
			if frag.Empty() {
				continue
			}
			if !yield(frag) {
				return
			}
		}
	}
}

// Apply folds a fragment into a message: the text delta is appended and the
// citation batch is merged into the accumulated set. Fragments must be
// applied in delivery order.
func Apply(msg *Message, frag Fragment) {
	msg.Text += frag.Text
	if len(frag.Citations) > 0 {
		msg.Citations = MergeCitations(msg.Citations, frag.Citations)
	}
}
