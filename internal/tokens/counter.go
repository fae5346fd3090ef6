package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/daialabs/daia/internal/model/convo"
)

// imageTokenCost is the flat per-image surcharge, a deliberate
// approximation rather than a vision-cost model.
const imageTokenCost = 85

// fallbackEncoding is used when the model has no known tokenizer.
const fallbackEncoding = "cl100k_base"

// Counter estimates the token cost of text and multimodal content for
// one model. Counting is pure: same input, same count.
type Counter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter returns a counter for the given model. A counter is
// always usable: unknown models fall back to the reference encoding,
// and if no encoding can be resolved at all, text costs degrade to a
// chars/4 estimate.
func NewCounter(modelName string) *Counter {
	return &Counter{model: modelName}
}

func (c *Counter) encoder() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				enc = nil
			}
		}
		c.enc = enc
	})
	return c.enc
}

func (c *Counter) text(s string) int {
	if enc := c.encoder(); enc != nil {
		return len(enc.Encode(s, nil, nil))
	}
	return (len(s) + 3) / 4
}

// Count returns the token cost of a content value: a plain string, a
// single content item, or an arbitrarily nested sequence of either.
// Unknown shapes cost zero.
func (c *Counter) Count(v any) int {
	switch val := v.(type) {
	case string:
		return c.text(val)
	case convo.ContentItem:
		switch val.Type {
		case convo.TypeText:
			return c.text(val.Text)
		case convo.TypeImage:
			return imageTokenCost
		}
		return 0
	case []convo.ContentItem:
		total := 0
		for _, item := range val {
			total += c.Count(item)
		}
		return total
	case []any:
		total := 0
		for _, item := range val {
			total += c.Count(item)
		}
		return total
	}
	return 0
}
