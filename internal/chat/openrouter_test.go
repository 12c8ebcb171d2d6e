package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestMapAnnotations(t *testing.T) {
	anns := []orAnnotation{
		{Type: "url_citation"},
		{Type: "file"},
	}
	anns[0].URLCitation.URL = "https://example.com"
	anns[0].URLCitation.Title = "Example"

	got := mapAnnotations(anns)
	want := []Citation{{URI: "https://example.com", Title: "Example"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mapAnnotations = %v, want %v", got, want)
	}
}

func TestMapAnnotations_DropsMissingURL(t *testing.T) {
	anns := []orAnnotation{{Type: "url_citation"}}
	if got := mapAnnotations(anns); got != nil {
		t.Errorf("mapAnnotations = %v, want nil", got)
	}
}

func newTestSession(t *testing.T, handler http.HandlerFunc) *OpenRouter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewOpenRouter("key", "model", "prompt", nil)
	s.endpoint = srv.URL
	return s
}

func TestStream_RecordsBothTurns(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var text string
	for frag, err := range s.Stream(context.Background(), "hi") {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		text += frag.Text
	}
	if text != "Hello" {
		t.Errorf("streamed text = %q, want %q", text, "Hello")
	}

	want := []orMessage{
		{Role: "system", Content: "prompt"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "Hello"},
	}
	if !reflect.DeepEqual(s.history, want) {
		t.Errorf("history = %v, want %v", s.history, want)
	}
}

func TestStream_FailedRequestDropsUserTurn(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	})

	var streamErr error
	for _, err := range s.Stream(context.Background(), "hi") {
		streamErr = err
	}
	if streamErr == nil {
		t.Fatal("expected a stream error")
	}

	// The dangling user turn must not survive, or the retry below would
	// send two consecutive user messages.
	if len(s.history) != 1 || s.history[0].Role != "system" {
		t.Fatalf("history after failure = %v, want only the system prompt", s.history)
	}

	for range s.Stream(context.Background(), "hi again") {
	}
	for i := 1; i < len(s.history); i++ {
		if s.history[i].Role == s.history[i-1].Role {
			t.Errorf("history has consecutive %s turns: %v", s.history[i].Role, s.history)
		}
	}
}

func TestStream_MidStreamErrorKeepsPartialReply(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Par\"}}]}\n\n")
		fmt.Fprint(w, "data: {not json\n\n")
	})

	var text string
	var streamErr error
	for frag, err := range s.Stream(context.Background(), "hi") {
		if err != nil {
			streamErr = err
			break
		}
		text += frag.Text
	}
	if streamErr == nil {
		t.Fatal("expected a stream error")
	}
	if text != "Par" {
		t.Errorf("streamed text before error = %q, want %q", text, "Par")
	}

	last := s.history[len(s.history)-1]
	if last.Role != "assistant" || last.Content != "Par" {
		t.Errorf("last history entry = %v, want the partial assistant reply", last)
	}
}
