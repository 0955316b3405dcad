// Copyright (c) ContextCore Authors.
// Licensed under the MIT License.

/*
Package store 实现进程级的会话上下文存储核心。

# 概述

store 按 agent id 维护有序消息日志，提供变更暂存（append / tag / mask /
insert）、原子 commit / rollback、Token 感知的读视图以及快照恢复能力。
它是一个纯内存的微型数据库：压缩（condensation / truncation）只打标记，
从不物理删除消息，读取时按需过滤，保证完整的审计轨迹。

# 核心类型

  - ContextStore   — 进程级存储，GetView / GetMutator / SetAgentBudget /
    Snapshot / Restore / Stats
  - ContextView    — 只读视图（按 agent id 身份缓存），Messages /
    MessagesWithin / EffectiveMessages / TokenCount / Utilization
  - ContextMutator — 写入面，暂存一批变更后 Commit 原子应用，
    Rollback 全部丢弃

# 并发模型

存储内部以 RWMutex 串行化提交；视图读取始终观察到一致的已提交状态。
同一 agent id 同时持有多个未提交 mutator 属于使用契约违规（丢失更新）。
并行 worker 必须使用互不复用的 agent id 作为唯一隔离边界。

# 边界行为

未知 agent id 不是错误：懒初始化为空历史。标记 / 掩码 / 插入操作的越界
索引在调用时即返回 INDEX_OUT_OF_RANGE 结构化错误；Commit 应用阶段再次
校验，失败时整批不生效且暂存缓冲保留。
*/
package store
