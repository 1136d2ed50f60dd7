package logic

import (
	"errors"
)

// 错误分类。所有错误在任何状态变更前同步返回给调用方；
// handler层按类别映射HTTP状态码。
var (
	// ErrValidation 参数校验失败，调用方修正输入后可重试
	ErrValidation = errors.New("参数校验失败")
	// ErrUnauthorized 调用方无权执行该操作
	ErrUnauthorized = errors.New("无权执行该操作")
	// ErrState 操作与当前状态不符
	ErrState = errors.New("操作与当前状态不符")
	// ErrProofVerification 预言机响应证明校验失败或负载形状不匹配
	ErrProofVerification = errors.New("证明校验失败")
	// ErrResource 托管余额不足，仅阻断本次转账
	ErrResource = errors.New("托管余额不足")
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("记录不存在")
)
