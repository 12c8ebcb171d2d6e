package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/tmaxmax/go-sse"
)

const openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouter is a Session backed by OpenRouter's OpenAI-compatible streaming
// chat API. Web-search citations arrive as url_citation annotations on the
// streamed deltas and are mapped into Citations.
type OpenRouter struct {
	apiKey       string
	model        string
	systemPrompt string
	endpoint     string

	client  *http.Client
	history []orMessage
}

type orMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orChatRequest struct {
	Model    string      `json:"model"`
	Messages []orMessage `json:"messages"`
	Stream   bool        `json:"stream"`
}

type orStreamingResponse struct {
	Choices []struct {
		Delta struct {
			Content     string         `json:"content"`
			Annotations []orAnnotation `json:"annotations"`
		} `json:"delta"`
	} `json:"choices"`
}

type orAnnotation struct {
	Type        string `json:"type"`
	URLCitation struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"url_citation"`
}

// NewOpenRouter creates an OpenRouter session seeded with prior turns.
func NewOpenRouter(apiKey, model, systemPrompt string, history []Message) *OpenRouter {
	o := &OpenRouter{
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		endpoint:     openRouterEndpoint,
		client:       &http.Client{},
	}
	o.history = append(o.history, orMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		o.history = append(o.history, orMessage{Role: string(m.Role), Content: m.Text})
	}
	return o
}

// Stream sends the user text and yields reply fragments as they arrive.
// Both sides of the exchange are recorded in the session history once the
// reply completes.
func (o *OpenRouter) Stream(ctx context.Context, text string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		o.history = append(o.history, orMessage{Role: "user", Content: text})

		// However the stream ends, the history must stay alternating:
		// record whatever reply arrived, or drop the dangling user turn so
		// a retry doesn't send two consecutive user messages.
		var reply bytes.Buffer
		defer func() {
			if reply.Len() > 0 {
				o.history = append(o.history, orMessage{Role: "assistant", Content: reply.String()})
				return
			}
			o.history = o.history[:len(o.history)-1]
		}()

		resp, err := o.doRequest(ctx)
		if err != nil {
			yield(Fragment{}, err)
			return
		}
		defer resp.Body.Close() //nolint:errcheck

		for ev, err := range sse.Read(resp.Body, nil) {
			if err != nil {
				yield(Fragment{}, fmt.Errorf("reading stream: %w", err))
				return
			}
			if ev.Data == "[DONE]" {
				break
			}

			var res orStreamingResponse
			if err := json.Unmarshal([]byte(ev.Data), &res); err != nil {
				yield(Fragment{}, fmt.Errorf("unmarshaling stream event: %w", err))
				return
			}
			if len(res.Choices) == 0 {
				continue
			}

			delta := res.Choices[0].Delta
			frag := Fragment{
				Text:      delta.Content,
				Citations: mapAnnotations(delta.Annotations),
			}
			reply.WriteString(frag.Text)
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// mapAnnotations extracts web citations from delta annotations. Annotations
// that are not URL citations, or that carry no URL, have no usable source
// and are dropped.
func mapAnnotations(anns []orAnnotation) []Citation {
	var cits []Citation
	for _, a := range anns {
		if a.Type != "url_citation" || a.URLCitation.URL == "" {
			continue
		}
		cits = append(cits, Citation{
			URI:   a.URLCitation.URL,
			Title: a.URLCitation.Title,
		})
	}
	return cits
}

func (o *OpenRouter) doRequest(ctx context.Context) (*http.Response, error) {
	body, err := json.Marshal(orChatRequest{
		Model:    o.model,
		Messages: o.history,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		log.Debug("openrouter request rejected", "status", resp.StatusCode, "body", string(b))
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return resp, nil
}
