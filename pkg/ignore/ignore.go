package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Matcher 封装了受保护路径的判断逻辑
// 规则来自回收站目录下的 protect 文件，语法与 .gitignore 相同
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 初始化匹配器
// protectFile: 规则文件路径；不存在时返回一个什么都不匹配的 Matcher
func NewMatcher(protectFile string, extraRules ...string) (*Matcher, error) {
	var ignorer *gitignore.GitIgnore
	var err error

	if _, errStat := os.Stat(protectFile); errStat == nil {
		// 情况 A: 用户定义了 protect 文件，和额外规则合并编译
		ignorer, err = gitignore.CompileIgnoreFileAndLines(protectFile, extraRules...)
	} else if len(extraRules) > 0 {
		// 情况 B: 只有调用方给的规则
		ignorer = gitignore.CompileIgnoreLines(extraRules...)
	}

	if err != nil {
		return nil, err
	}

	return &Matcher{ignorer: ignorer}, nil
}

// Matches 检查绝对路径是否受保护
// 规则相对于文件系统根目录书写，例如 "etc/" 或 "home/*/important/**"
func (m *Matcher) Matches(absPath string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	rel := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(absPath)), "/")
	if rel == "" {
		return false
	}
	return m.ignorer.MatchesPath(rel)
}
