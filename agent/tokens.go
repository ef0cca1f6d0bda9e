package agent

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates and bounds token usage for prompt assembly. Large
// page text (DOM summaries, extracted content) is truncated to a token
// budget before it reaches the model.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter creates a counter over the cl100k_base encoding, which
// approximates most chat model tokenizers closely enough for budgeting.
func NewTokenCounter() (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}
	return &TokenCounter{enc: enc}, nil
}

// Count returns the token count of s.
func (c *TokenCounter) Count(s string) int {
	return len(c.enc.Encode(s, nil, nil))
}

// Truncate returns s cut down to at most maxTokens tokens, with a marker
// appended when anything was removed.
func (c *TokenCounter) Truncate(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	ids := c.enc.Encode(s, nil, nil)
	if len(ids) <= maxTokens {
		return s
	}
	return c.enc.Decode(ids[:maxTokens]) + "\n...[truncated]"
}
