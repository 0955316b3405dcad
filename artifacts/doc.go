// Copyright (c) ContextCore Authors.
// Licensed under the MIT License.

/*
Package artifacts 为超大文本 / 结构化输出提供可寻址的带外存储。

# 概述

消息流中无法内联保留的大体积工具输出（例如数百 KB 的 API 响应）
由本包落盘存储，消息流中只保留 Ref.ToInline() 生成的紧凑引用行。
后续轮次按需通过 Head / Tail / Grep / Chunk 做行窗口访问，
而不是每轮重发完整载荷。

# 核心类型

  - Store    — 基于本地文件系统的产物存储，每个产物独立目录
    （data + metadata.json），全局 index.json 索引
  - Ref      — 产物描述（路径、大小、MIME、SHA-256 校验和、归属信息）
  - Redactor — 写入前的密钥脱敏，正则模式有序应用，
    编译失败的模式跳过并记录日志（尽力而为，非全有全无）

# 行为约定

  - 结构化数据序列化为 JSON 存储，Load 还原为结构化值；
    字符串 / 字节按 UTF-8 文本存取
  - 脱敏在写入前发生且不可逆，校验和覆盖脱敏后的字节
  - 找不到产物返回 ErrNotFound；I/O 失败返回 ARTIFACT_IO 结构化错误，
    两者可区分
  - Grep / Chunk 行号从 1 开始，Chunk 为半开区间 [start, end)
*/
package artifacts
