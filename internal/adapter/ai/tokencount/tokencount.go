// Package tokencount estimates prompt sizes for LLM calls.
//
// It wraps tiktoken-go so prompt budgeting uses real tokenizer counts where
// an encoding is available, and a bytes/4 approximation otherwise.
package tokencount

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// defaultEncoding covers the OpenAI-compatible chat models served through
// OpenRouter well enough for budgeting purposes.
const defaultEncoding = "cl100k_base"

// Counter provides thread-safe token counting with a cached encoding.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewCounter creates a token counter. Encoding data loads lazily on first use.
func NewCounter() *Counter { return &Counter{} }

// DefaultCounter is the process-wide counter instance.
var DefaultCounter = NewCounter()

// Count returns the token count of text, falling back to len/4 when the
// encoding cannot be loaded (for example with no network access to fetch
// encoding data).
func (c *Counter) Count(text string) int {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(defaultEncoding)
	})
	if c.err != nil || c.enc == nil {
		return approximate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

func approximate(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		return 1
	}
	return n
}
