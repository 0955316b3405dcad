// Package tokenizer 提供统一的 Token 计数接口，
// 支持 tiktoken 精确计数与 CJK 估算器，并可适配为 types.TokenCounter
// 注入上下文存储。
package tokenizer

import (
	"go.uber.org/zap"

	"github.com/MervinPraison/contextcore/types"
)

// Tokenizer 是统一的带错误返回的计数接口。
type Tokenizer interface {
	// CountTokens 返回给定文本的 token 数。
	CountTokens(text string) (int, error)

	// Name 返回分词器的名称。
	Name() string
}

// Counter adapts a Tokenizer to the error-free types.TokenCounter the
// store consumes, falling back to character estimation when the tokenizer
// fails (e.g. tiktoken encoding data unavailable offline).
type Counter struct {
	tokenizer Tokenizer
	fallback  *types.EstimateTokenizer
	logger    *zap.Logger
}

// NewCounter wraps tokenizer as a types.TokenCounter.
func NewCounter(tokenizer Tokenizer, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{
		tokenizer: tokenizer,
		fallback:  types.NewEstimateTokenizer(),
		logger:    logger.With(zap.String("component", "token_counter")),
	}
}

// CountTokens implements types.TokenCounter.
func (c *Counter) CountTokens(text string) int {
	if c.tokenizer != nil {
		n, err := c.tokenizer.CountTokens(text)
		if err == nil {
			return n
		}
		c.logger.Warn("tokenizer failed, falling back to estimation",
			zap.String("tokenizer", c.tokenizer.Name()),
			zap.Error(err))
	}
	return c.fallback.CountTokens(text)
}
