package chat

import (
	"context"
	"iter"
)

// Fragment is one increment of model output: a text delta to append plus an
// optional batch of citations to merge. A fragment never replaces text.
type Fragment struct {
	Text      string
	Citations []Citation
}

// Empty reports whether the fragment carries neither text nor citations.
func (f Fragment) Empty() bool {
	return f.Text == "" && len(f.Citations) == 0
}

// Session is a handle to a model backend holding the conversation so far.
// Stream sends the user text and yields reply fragments in delivery order.
// The iteration ends when the reply is complete; a non-nil error means the
// transport failed and no further fragments will arrive. Cancelling the
// context stops the stream.
type Session interface {
	Stream(ctx context.Context, text string) iter.Seq2[Fragment, error]
}
