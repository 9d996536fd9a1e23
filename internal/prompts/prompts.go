// Package prompts 加载各 Agent 的固定指令模板
package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/run-bigpig/ava/internal/embed"
)

// Summarizer 摘要 Agent 指令
type Summarizer struct {
	Mandate      string `yaml:"mandate"`
	Conversation string `yaml:"conversation"`
	Reports      string `yaml:"reports"`
	Report       string `yaml:"report"`
}

// Classifier 意图分类 Agent 指令
type Classifier struct {
	Mandate string `yaml:"mandate"`
	Context string `yaml:"context"`
	Input   string `yaml:"input"`
}

// Reply 面向用户的回复 Agent 指令
type Reply struct {
	Mandate      string `yaml:"mandate"`
	Conversation string `yaml:"conversation"`
	Reports      string `yaml:"reports"`
	RiskProfile  string `yaml:"risk_profile"`
	Fundamentals string `yaml:"fundamentals"`
	UseHint      string `yaml:"use_hint"`
	PriceChart   string `yaml:"price_chart"`
	RadarChart   string `yaml:"radar_chart"`
	Client       string `yaml:"client"`
	Speaker      string `yaml:"speaker"`
}

// Risk 风险画像 Agent 指令
type Risk struct {
	Mandate      string `yaml:"mandate"`
	Conversation string `yaml:"conversation"`
	Instruction  string `yaml:"instruction"`
}

// Set 全部指令模板
type Set struct {
	Summarizer Summarizer `yaml:"summarizer"`
	Classifier Classifier `yaml:"classifier"`
	Reply      Reply      `yaml:"reply"`
	Risk       Risk       `yaml:"risk"`
}

// Default 返回内置模板
func Default() (*Set, error) {
	return parse(embed.PromptsYAML)
}

// MustDefault 返回内置模板，解析失败直接 panic（内置文件损坏属于构建错误）
func MustDefault() *Set {
	s, err := Default()
	if err != nil {
		panic(err)
	}
	return s
}

// Load 加载模板；path 非空时用文件中的字段覆盖内置模板
// 分类指令决定输出格式，始终使用内置版本，文件中的 classifier 段被忽略
func Load(path string) (*Set, error) {
	set, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	// yaml.v3 只覆盖文件中出现的字段
	classifier := set.Classifier
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	if set.Classifier != classifier {
		log.Warn("%s: classifier instructions cannot be overridden, using built-in templates", path)
		set.Classifier = classifier
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *Set) validate() error {
	required := map[string]string{
		"summarizer.mandate": s.Summarizer.Mandate,
		"classifier.mandate": s.Classifier.Mandate,
		"reply.mandate":      s.Reply.Mandate,
		"risk.mandate":       s.Risk.Mandate,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("prompt %s is empty", name)
		}
	}
	return nil
}

// Themes 返回主题别名映射（key 均为小写）
func Themes() (map[string]string, error) {
	var m map[string]string
	if err := yaml.Unmarshal(embed.ThemesYAML, &m); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}
