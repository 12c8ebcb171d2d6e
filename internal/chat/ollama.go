package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama is a Session backed by a local Ollama server. Ollama replies carry
// no grounding metadata, so fragments are text only.
type Ollama struct {
	model  string
	client *api.Client

	history []api.Message
}

// NewOllama creates an Ollama session seeded with prior turns. The host must
// be a valid URL pointing at an Ollama server.
func NewOllama(host, model, systemPrompt string, history []Message) (*Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama host: %w", err)
	}

	o := &Ollama{
		model:  model,
		client: api.NewClient(u, &http.Client{}),
	}
	o.history = append(o.history, api.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		o.history = append(o.history, api.Message{Role: string(m.Role), Content: m.Text})
	}
	return o, nil
}

// Stream sends the user text and yields reply fragments as they arrive.
func (o *Ollama) Stream(ctx context.Context, text string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		o.history = append(o.history, api.Message{Role: "user", Content: text})

		stream := true
		req := api.ChatRequest{
			Model:    o.model,
			Messages: o.history,
			Stream:   &stream,
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// The client may deliver a response already in flight after
		// cancellation; yield must not be called again once it returns false.
		stopped := false
		var reply strings.Builder
		err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
			if stopped {
				return nil
			}
			reply.WriteString(res.Message.Content)
			if !yield(Fragment{Text: res.Message.Content}, nil) {
				stopped = true
				cancel()
			}
			return nil
		})
		if err != nil {
			if stopped || errors.Is(err, context.Canceled) {
				return
			}
			yield(Fragment{}, fmt.Errorf("ollama chat: %w", err))
			return
		}

		o.history = append(o.history, api.Message{Role: "assistant", Content: reply.String()})
	}
}
