// pkg/app/app.go
package app

import (
	"fmt"
	"io"
	"log/slog"

	"recyclebin/pkg/config"
	"recyclebin/pkg/idgen"
	"recyclebin/pkg/ignore"
	"recyclebin/pkg/logging"
	"recyclebin/pkg/meta"
	"recyclebin/pkg/recyclebin"
	"recyclebin/pkg/storage"
	"recyclebin/pkg/storage/disk"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有"单例"服务
type App struct {
	Config   *config.Config
	Records  *meta.Store
	Payloads storage.Store
	Bin      *recyclebin.Bin
	Log      *slog.Logger

	// Created 表示这次启动时新建了回收站目录
	Created bool

	logCloser io.Closer
}

// NewApp 是工厂函数，负责组装这一台机器
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
func NewApp() (*App, error) {
	return newApp(viper.GetViper())
}

func newApp(v *viper.Viper) (*App, error) {
	// 1. 解析配置 (Single Source of Truth)
	cfg, warnings, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	// 2. 首次使用时创建目录结构
	created, err := config.EnsureLayout(cfg)
	if err != nil {
		return nil, err
	}

	// 3. 日志
	log, closer, err := logging.Open(cfg.LogPath(), slog.LevelInfo)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("ignoring config value", "error", w)
	}
	if created {
		log.Info("initialized recycle bin", "dir", cfg.BinDir)
	}

	// 4. 记录表与 payload 区 (Dependency Injection)
	records, err := meta.NewStore(cfg.MetadataPath(), log)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	payloads, err := disk.NewAdapter(cfg.FilesDir())
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to init payload area: %w", err)
	}

	// 5. 受保护路径
	protect, err := ignore.NewMatcher(cfg.ProtectPath())
	if err != nil {
		log.Warn("ignoring unreadable protect file", "path", cfg.ProtectPath(), "error", err)
		protect = nil
	}

	bin := recyclebin.New(cfg, records, payloads, log,
		recyclebin.WithIDGenerator(idgen.New()),
		recyclebin.WithProtect(protect),
	)

	return &App{
		Config:    cfg,
		Records:   records,
		Payloads:  payloads,
		Bin:       bin,
		Log:       log,
		Created:   created,
		logCloser: closer,
	}, nil
}

// Close 关闭日志文件
func (a *App) Close() error {
	if a == nil || a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}
