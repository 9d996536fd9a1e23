package prompts

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/run-bigpig/ava/internal/logger"
)

var log = logger.New("prompts")

// reloadDebounce 编辑器保存时会连续触发多个事件，合并为一次加载
const reloadDebounce = 200 * time.Millisecond

// Watch 监听模板覆盖文件，变更后重新加载并回调 onChange；阻塞直到 ctx 结束
// 加载失败时保留旧模板，只记录日志
func Watch(ctx context.Context, path string, onChange func(*Set)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompts watcher: %w", err)
	}
	defer watcher.Close()

	// 监听所在目录，兼容先写临时文件再 rename 的保存方式
	dir, name := filepath.Dir(path), filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info("watching prompts file %s", path)

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(reloadDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("prompts watcher error: %v", err)

		case <-timer.C:
			set, err := Load(path)
			if err != nil {
				log.Warn("reload prompts failed, keeping previous templates: %v", err)
				continue
			}
			log.Info("prompts reloaded from %s", path)
			onChange(set)
		}
	}
}
