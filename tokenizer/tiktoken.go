package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken 为 OpenAI 家族模型提供精确计数。
type Tiktoken struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// 模型名称到 tiktoken 编码的映射。
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// NewTiktoken 为给定模型创建 tiktoken 计数器，未知模型回退到
// cl100k_base。编码数据在首次使用时惰性加载。
func NewTiktoken(model string) *Tiktoken {
	encoding, ok := modelEncodings[model]
	if !ok {
		// 最长前缀匹配（"gpt-4o-mini-…" 必须优先命中 gpt-4o 而不是 gpt-4）。
		best := ""
		for prefix, e := range modelEncodings {
			if len(model) >= len(prefix) && model[:len(prefix)] == prefix && len(prefix) > len(best) {
				best = prefix
				encoding = e
				ok = true
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}
	return &Tiktoken{model: model, encoding: encoding}
}

// init 惰性初始化 tiktoken 编码（首次使用时可能下载数据）。
func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
