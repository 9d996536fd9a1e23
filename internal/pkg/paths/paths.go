package paths

import (
	"os"
	"path/filepath"
)

// GetDataDir 获取应用数据目录，AVA_DATA_DIR 已设置时由调用方传入 override
func GetDataDir(override string) string {
	if override != "" {
		return override
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil || userConfigDir == "" {
		return filepath.Join(".", "data")
	}
	return filepath.Join(userConfigDir, "ava")
}

// GetCacheDir 获取缓存目录
func GetCacheDir(dataDir string) string {
	return filepath.Join(dataDir, "cache")
}

// GetExportDir 获取导出目录（风险画像 JSON 等）
func GetExportDir(dataDir string) string {
	return filepath.Join(dataDir, "exports")
}

// EnsureDir 确保目录存在并返回路径
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Resolve 相对路径按数据目录解析，绝对路径原样返回
func Resolve(dataDir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}
