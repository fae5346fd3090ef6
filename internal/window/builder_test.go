package window_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/daialabs/daia/internal/history"
	"github.com/daialabs/daia/internal/model/convo"
	"github.com/daialabs/daia/internal/settings"
	"github.com/daialabs/daia/internal/window"
)

// textCounter charges a fixed cost per text item and nothing for
// strings, keeping token arithmetic exact in tests.
type textCounter struct {
	costs map[string]int
}

func (c textCounter) Count(v any) int {
	switch val := v.(type) {
	case convo.ContentItem:
		return c.costs[val.Text]
	case []convo.ContentItem:
		total := 0
		for _, item := range val {
			total += c.Count(item)
		}
		return total
	}
	return 0
}

func newFixture(t *testing.T, overrides string) (*settings.Store, *history.Store) {
	t.Helper()
	dataDir := t.TempDir()
	configDir := t.TempDir()

	if overrides != "" {
		if err := os.WriteFile(filepath.Join(dataDir, "settings.json"), []byte(overrides), 0o644); err != nil {
			t.Fatalf("write settings: %v", err)
		}
	}
	st, err := settings.Load(dataDir, configDir)
	if err != nil {
		t.Fatalf("settings.Load err: %v", err)
	}

	hist, err := history.Open(filepath.Join(dataDir, "history.json"))
	if err != nil {
		t.Fatalf("history.Open err: %v", err)
	}
	return st, hist
}

func textTurn(text string) convo.Message {
	return convo.Message{Role: convo.RoleUser, Content: []convo.ContentItem{convo.TextItem(text)}}
}

func TestBuildEvictsOldestUntilBudgetFits(t *testing.T) {
	st, hist := newFixture(t, `{"max_history_tokens": 5000}`)
	for _, text := range []string{"e1", "e2", "e3"} {
		if err := hist.Append("c", textTurn(text)); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	counter := textCounter{costs: map[string]int{"e1": 3000, "e2": 3000, "e3": 3000}}
	b := window.New(st, hist, counter)

	_, msgs, err := b.Build("c")
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}

	if len(msgs) != 1 || msgs[0].Content[0].Text != "e3" {
		t.Fatalf("expected only e3 to survive, got %+v", msgs)
	}
	// The trimmed history is the new truth.
	if stored := hist.Channel("c"); len(stored) != 1 || stored[0].Content[0].Text != "e3" {
		t.Fatalf("trimmed history not persisted: %+v", stored)
	}
}

func TestBuildEvictionIsStrictlyFIFO(t *testing.T) {
	st, hist := newFixture(t, `{"max_history_tokens": 2500}`)
	for _, text := range []string{"big", "small1", "small2"} {
		if err := hist.Append("c", textTurn(text)); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	// The oldest entry carries nearly all the weight; evicting it
	// alone brings the total under budget.
	counter := textCounter{costs: map[string]int{"big": 3000, "small1": 1000, "small2": 1000}}
	b := window.New(st, hist, counter)

	_, msgs, err := b.Build("c")
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content[0].Text != "small1" || msgs[1].Content[0].Text != "small2" {
		t.Fatalf("expected the two newest entries to survive, got %+v", msgs)
	}
}

func TestBuildSingleOversizedEntryLeavesHistoryEmpty(t *testing.T) {
	st, hist := newFixture(t, `{"max_history_tokens": 5000}`)
	if err := hist.Append("c", textTurn("huge")); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	counter := textCounter{costs: map[string]int{"huge": 6000}}
	b := window.New(st, hist, counter)

	_, msgs, err := b.Build("c")
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %+v", msgs)
	}
	if stored := hist.Channel("c"); len(stored) != 0 {
		t.Fatalf("eviction must persist, got %+v", stored)
	}
}

func TestBuildAnnotatesImageDetail(t *testing.T) {
	st, hist := newFixture(t, "")
	for i := 0; i < 3; i++ {
		msg := convo.Message{Role: convo.RoleUser, Content: []convo.ContentItem{
			convo.TextItem("t"),
			convo.ImageItem("https://example.com/img.png", convo.DetailHigh),
		}}
		if err := hist.Append("c", msg); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	b := window.New(st, hist, textCounter{})
	_, msgs, err := b.Build("c")
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 surviving messages, got %d", len(msgs))
	}

	for i, msg := range msgs {
		want := convo.DetailLow
		if i == len(msgs)-1 {
			want = convo.DetailHigh
		}
		if got := msg.Content[1].ImageURL.Detail; got != want {
			t.Fatalf("message %d: detail %s want %s", i, got, want)
		}
	}
}

func TestBuildSystemPromptFallback(t *testing.T) {
	st, hist := newFixture(t, `{"system_prompt": ""}`)
	b := window.New(st, hist, textCounter{})

	prompt, _, err := b.Build("c")
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if prompt != "You are a helpful assistant." {
		t.Fatalf("unexpected fallback prompt: %q", prompt)
	}
}
