package chat

import (
	"reflect"
	"testing"
)

func TestMergeCitations_OrderPreserved(t *testing.T) {
	existing := []Citation{{URI: "a", Title: "A"}}
	incoming := []Citation{{URI: "b", Title: "B"}, {URI: "a", Title: "A2"}}

	got := MergeCitations(existing, incoming)
	want := []Citation{{URI: "a", Title: "A"}, {URI: "b", Title: "B"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeCitations = %v, want %v", got, want)
	}
}

func TestMergeCitations_FirstTitleWins(t *testing.T) {
	got := MergeCitations(
		[]Citation{{URI: "x", Title: "first"}},
		[]Citation{{URI: "x", Title: "second"}},
	)
	if len(got) != 1 || got[0].Title != "first" {
		t.Errorf("expected first title to win, got %v", got)
	}
}

func TestMergeCitations_Idempotent(t *testing.T) {
	a := []Citation{{URI: "a", Title: "A"}, {URI: "b", Title: "B"}}
	b := []Citation{{URI: "b", Title: "B"}, {URI: "c", Title: "C"}}

	once := MergeCitations(append([]Citation(nil), a...), b)
	twice := MergeCitations(append([]Citation(nil), once...), b)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent: %v vs %v", once, twice)
	}
}

func TestMergeCitations_DropsEntriesWithoutURI(t *testing.T) {
	got := MergeCitations(nil, []Citation{{Title: "no source"}, {URI: "a", Title: "A"}})
	want := []Citation{{URI: "a", Title: "A"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeCitations = %v, want %v", got, want)
	}
}

func TestMergeCitations_WithinBatchDuplicates(t *testing.T) {
	got := MergeCitations(nil, []Citation{
		{URI: "a", Title: "first"},
		{URI: "a", Title: "second"},
	})
	want := []Citation{{URI: "a", Title: "first"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeCitations = %v, want %v", got, want)
	}
}

func TestMergeCitations_EmptyIncoming(t *testing.T) {
	existing := []Citation{{URI: "a", Title: "A"}}
	if got := MergeCitations(existing, nil); !reflect.DeepEqual(got, existing) {
		t.Errorf("MergeCitations = %v, want existing unchanged", got)
	}
}
