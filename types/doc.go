// Copyright (c) ContextCore Authors.
// Licensed under the MIT License.

/*
Package types 提供 contextcore 模块的全局共享类型定义。

# 概述

types 是模块最底层的公共包，不依赖任何内部包，为 store、artifacts、
queue、tokenizer 等上层模块提供统一的类型契约。所有跨包共享的接口、
结构体、枚举和错误码均定义于此，以避免循环依赖。

# 核心接口与类型

  - Message           — 对话消息（Role、Content、ToolCalls），视图返回的
    消息不携带任何内部标记字段
  - TokenCounter      — 最小 Token 计数接口（CountTokens(string) int）
  - Tokenizer         — 消息感知的 Token 计数接口
  - EstimateTokenizer — 基于字符数的估算实现（中英文分别计算）
  - Error / ErrorCode — 结构化错误体系，含 Cause 链与错误码匹配

# 主要能力

  - Context 传播：WithAgentID / WithRunID / WithTraceID 等
  - 错误工具链：NewError / NewErrorf / IsErrorCode
  - Token 估算：EstimateTokenizer 满足确定性与单调性约束
*/
package types
