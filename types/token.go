package types

// TokenCounter is the minimal token counting interface consumed by the
// store and queue layers. Implementations must be deterministic and
// monotone: the same text always yields the same count, and longer text
// never yields fewer tokens.
type TokenCounter interface {
	// CountTokens counts tokens in a text string.
	CountTokens(text string) int
}

// Tokenizer extends TokenCounter with message-aware counting.
type Tokenizer interface {
	TokenCounter
	// CountMessageTokens counts tokens in a single message.
	CountMessageTokens(msg Message) int
	// CountMessagesTokens counts total tokens in a message slice.
	CountMessagesTokens(msgs []Message) int
}

// EstimateTokenizer provides a simple character-based token estimation.
type EstimateTokenizer struct {
	charsPerToken float64
	msgOverhead   int
}

// NewEstimateTokenizer creates a new EstimateTokenizer.
func NewEstimateTokenizer() *EstimateTokenizer {
	return &EstimateTokenizer{
		charsPerToken: 4.0,
		msgOverhead:   4,
	}
}

// CountTokens counts tokens in text.
func (t *EstimateTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	var cjkCount, otherCount int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			cjkCount++
		} else {
			otherCount++
		}
	}
	tokens := float64(cjkCount)/1.5 + float64(otherCount)/t.charsPerToken
	if tokens < 1 {
		return 1
	}
	return int(tokens)
}

// CountMessageTokens counts tokens in a message.
func (t *EstimateTokenizer) CountMessageTokens(msg Message) int {
	tokens := t.msgOverhead
	tokens += t.CountTokens(msg.Content)
	if msg.Name != "" {
		tokens += t.CountTokens(msg.Name)
	}
	for _, tc := range msg.ToolCalls {
		tokens += t.CountTokens(tc.Name)
		tokens += len(tc.Arguments) / 4
	}
	return tokens
}

// CountMessagesTokens counts tokens in messages.
func (t *EstimateTokenizer) CountMessagesTokens(msgs []Message) int {
	total := 0
	for _, msg := range msgs {
		total += t.CountMessageTokens(msg)
	}
	return total
}
