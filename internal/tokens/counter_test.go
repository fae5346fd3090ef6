package tokens

import (
	"testing"

	"github.com/daialabs/daia/internal/model/convo"
)

func TestCountImageFlatCost(t *testing.T) {
	c := NewCounter("unknown-model")

	got := c.Count(convo.ImageItem("data:image/png;base64,xyz", convo.DetailHigh))
	if got != 85 {
		t.Fatalf("image cost: got %d want 85", got)
	}

	// Detail level and source length must not change the cost.
	other := c.Count(convo.ImageItem("https://example.com/a-much-longer-url/image.png", convo.DetailLow))
	if other != 85 {
		t.Fatalf("image cost: got %d want 85", other)
	}
}

func TestCountDeterministicAndNonNegative(t *testing.T) {
	c := NewCounter("unknown-model")

	first := c.Count("the quick brown fox jumps over the lazy dog")
	second := c.Count("the quick brown fox jumps over the lazy dog")
	if first != second {
		t.Fatalf("count not deterministic: %d vs %d", first, second)
	}
	if first <= 0 {
		t.Fatalf("expected positive count for non-empty text, got %d", first)
	}
	if got := c.Count(""); got != 0 {
		t.Fatalf("empty text: got %d want 0", got)
	}
}

func TestCountSequenceIsSumOfItems(t *testing.T) {
	c := NewCounter("unknown-model")

	items := []convo.ContentItem{
		convo.TextItem("hello there"),
		convo.ImageItem("data:image/png;base64,xyz", convo.DetailLow),
		convo.TextItem("goodbye"),
	}

	sum := 0
	for _, item := range items {
		sum += c.Count(item)
	}
	if got := c.Count(items); got != sum {
		t.Fatalf("sequence count %d != item sum %d", got, sum)
	}
}

func TestCountNestedSequences(t *testing.T) {
	c := NewCounter("unknown-model")

	inner := []convo.ContentItem{convo.ImageItem("x", convo.DetailLow)}
	nested := []any{inner, []any{inner}, convo.TextItem("hi")}

	want := 85 + 85 + c.Count(convo.TextItem("hi"))
	if got := c.Count(nested); got != want {
		t.Fatalf("nested count: got %d want %d", got, want)
	}
}

func TestCountUnknownShapesAreZero(t *testing.T) {
	c := NewCounter("unknown-model")

	if got := c.Count(convo.ContentItem{Type: "audio_url"}); got != 0 {
		t.Fatalf("unknown item type: got %d want 0", got)
	}
	if got := c.Count(42); got != 0 {
		t.Fatalf("unknown value: got %d want 0", got)
	}
	if got := c.Count(nil); got != 0 {
		t.Fatalf("nil value: got %d want 0", got)
	}
}
