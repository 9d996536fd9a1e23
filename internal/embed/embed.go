package embed

import (
	_ "embed"
)

// PromptsYAML 内置的 Agent 指令模板
// 编译时从 prompts.yaml 嵌入到二进制文件中
//
//go:embed prompts.yaml
var PromptsYAML []byte

// ThemesYAML 内置的主题别名映射（表格筛选使用）
//
//go:embed themes.yaml
var ThemesYAML []byte
