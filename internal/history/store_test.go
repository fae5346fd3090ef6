package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/daialabs/daia/internal/model/convo"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	user := convo.Message{
		Role: convo.RoleUser,
		Content: []convo.ContentItem{
			convo.TextItem("look at this"),
			convo.ImageItem("data:image/png;base64,abc", convo.DetailHigh),
		},
	}
	if err := store.Append("chan-1", user); err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if err := store.Append("chan-1", convo.Message{
		Role:    convo.RoleAssistant,
		Content: []convo.ContentItem{convo.TextItem("nice")},
	}); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen err: %v", err)
	}

	before := store.Channel("chan-1")
	after := reopened.Channel("chan-1")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip mismatch:\nbefore: %+v\nafter:  %+v", before, after)
	}
	if after[0].ID == "" || after[0].Timestamp == "" {
		t.Fatalf("expected id and timestamp persisted, got %+v", after[0])
	}
}

func TestStoreNewChannelStartsEmpty(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if msgs := store.Channel("never-seen"); len(msgs) != 0 {
		t.Fatalf("expected empty sequence, got %+v", msgs)
	}
}

func TestStoreReplacePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	for _, text := range []string{"one", "two", "three"} {
		if err := store.Append("c", convo.Message{Role: convo.RoleUser, Content: []convo.ContentItem{convo.TextItem(text)}}); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	trimmed := store.Channel("c")[2:]
	if err := store.Replace("c", trimmed); err != nil {
		t.Fatalf("Replace err: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen err: %v", err)
	}
	got := reopened.Channel("c")
	if len(got) != 1 || got[0].Content[0].Text != "three" {
		t.Fatalf("trimmed history not persisted: %+v", got)
	}
}

func TestStoreLegacyFileCoercedIdentically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `[{"username":"daia","text":"old reply","timestamp":"2023-06-01T10:00:00Z"}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	a := first.Channel("default")
	b := second.Channel("default")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("legacy coercion not stable:\nfirst:  %+v\nsecond: %+v", a, b)
	}
	if a[0].Role != convo.RoleAssistant {
		t.Fatalf("alias author should coerce to assistant, got %s", a[0].Role)
	}
}

func TestStoreMalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{{{ not json"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("malformed history must not be fatal: %v", err)
	}
	if ids := store.Channels(); len(ids) != 0 {
		t.Fatalf("expected no channels, got %v", ids)
	}
}
