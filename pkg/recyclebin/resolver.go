package recyclebin

import (
	"context"
	"fmt"
	"strings"

	"recyclebin/pkg/meta"
)

// Decision 是还原时目标路径已存在的处理方式
type Decision int

const (
	DecisionCancel Decision = iota
	DecisionOverwrite
	DecisionRename
)

func (d Decision) String() string {
	switch d {
	case DecisionOverwrite:
		return "overwrite"
	case DecisionRename:
		return "rename"
	default:
		return "cancel"
	}
}

// ParseDecision 解析 overwrite|rename|cancel
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite":
		return DecisionOverwrite, nil
	case "rename":
		return DecisionRename, nil
	case "cancel", "skip":
		return DecisionCancel, nil
	default:
		return DecisionCancel, fmt.Errorf("invalid conflict policy %q (allowed: overwrite|rename|cancel)", s)
	}
}

// ConflictResolver 决定还原目标已存在时怎么办。
// 默认实现是终端交互 (pkg/prompt)，测试里使用 StaticResolver。
type ConflictResolver interface {
	Resolve(ctx context.Context, rec meta.Record, destination string) (Decision, error)
}

// ResolverFunc 让普通函数满足 ConflictResolver
type ResolverFunc func(ctx context.Context, rec meta.Record, destination string) (Decision, error)

func (f ResolverFunc) Resolve(ctx context.Context, rec meta.Record, destination string) (Decision, error) {
	return f(ctx, rec, destination)
}

// StaticResolver 总是返回同一个决定
type StaticResolver Decision

func (s StaticResolver) Resolve(context.Context, meta.Record, string) (Decision, error) {
	return Decision(s), nil
}

// Confirmer 用于破坏性操作前的确认
type Confirmer interface {
	Confirm(label string) (bool, error)
}

// ConfirmFunc 让普通函数满足 Confirmer
type ConfirmFunc func(label string) (bool, error)

func (f ConfirmFunc) Confirm(label string) (bool, error) { return f(label) }
