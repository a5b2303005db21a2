// Package prompt 提供终端交互：破坏性操作确认和还原冲突选择。
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"recyclebin/pkg/meta"
	"recyclebin/pkg/recyclebin"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var (
	// ErrAborted 表示用户按了 Ctrl+C
	ErrAborted = errors.New("aborted by user")
	// ErrNotInteractive 表示标准输入不是终端，无法询问
	ErrNotInteractive = errors.New("stdin is not a terminal")
)

// Terminal 同时实现 recyclebin.Confirmer 和 recyclebin.ConflictResolver
type Terminal struct {
	stdin       io.ReadCloser
	stdout      io.WriteCloser
	interactive bool
}

// NewTerminal 使用进程的标准输入输出
func NewTerminal() *Terminal {
	return &Terminal{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewWithIO 用于测试或嵌入
func NewWithIO(in io.ReadCloser, out io.WriteCloser, interactive bool) *Terminal {
	return &Terminal{stdin: in, stdout: out, interactive: interactive}
}

func (t *Terminal) Interactive() bool { return t.interactive }

// Confirm 询问 yes/no，默认 no
func (t *Terminal) Confirm(label string) (bool, error) {
	if !t.interactive {
		return false, fmt.Errorf("%w: use --force to skip confirmation", ErrNotInteractive)
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     t.stdin,
		Stdout:    t.stdout,
	}
	result, err := p.Run()
	if err != nil {
		// promptui 对 "n" 返回 ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, wrapError(err)
	}
	answer := strings.ToLower(strings.TrimSpace(result))
	return answer == "y" || answer == "yes", nil
}

type option struct {
	Label    string
	Decision recyclebin.Decision
}

var conflictOptions = []option{
	{"Overwrite the existing item", recyclebin.DecisionOverwrite},
	{"Restore under a new name", recyclebin.DecisionRename},
	{"Cancel", recyclebin.DecisionCancel},
}

// Resolve 在目标已存在时让用户选择覆盖 / 重命名 / 取消
func (t *Terminal) Resolve(ctx context.Context, rec meta.Record, destination string) (recyclebin.Decision, error) {
	if !t.interactive {
		return recyclebin.DecisionCancel, fmt.Errorf("%w: %s already exists, use --on-conflict", ErrNotInteractive, destination)
	}

	s := promptui.Select{
		Label: fmt.Sprintf("%s already exists", destination),
		Items: conflictOptions,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label | white }}",
			Selected: "* {{ .Label | green }}",
		},
		Size:   len(conflictOptions),
		Stdin:  t.stdin,
		Stdout: t.stdout,
	}
	i, _, err := s.Run()
	if err != nil {
		return recyclebin.DecisionCancel, wrapError(err)
	}
	return conflictOptions[i].Decision, nil
}

// ForPolicy 根据 --on-conflict 选出冲突处理方式；"prompt" 使用终端交互
func (t *Terminal) ForPolicy(policy string) (recyclebin.ConflictResolver, error) {
	if strings.EqualFold(strings.TrimSpace(policy), "prompt") || policy == "" {
		return t, nil
	}
	d, err := recyclebin.ParseDecision(policy)
	if err != nil {
		return nil, err
	}
	return recyclebin.StaticResolver(d), nil
}

func wrapError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrAborted
	}
	return err
}
