// Package parser 从模型的自由文本输出中提取结构化字典
//
// 模型不一定遵守输出格式要求：可能附带解释文字、代码块标记，
// 也可能使用单引号字面量而不是 JSON。这里的所有失败路径都退化为空字典，
// 调用方应把空字典视为"未分类"而不是错误。
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/run-bigpig/ava/internal/models"
)

// fencePattern 匹配代码块标记及紧跟的语言标识（```json、```python、```）
var fencePattern = regexp.MustCompile("```[A-Za-z0-9_+\\-]*")

// Parse 解析文本中的字典，失败时返回空字典，永不 panic
func Parse(text string) map[string]any {
	extracted := Extract(text)
	if extracted == "" {
		return map[string]any{}
	}

	if m, ok := parseLiteral(extracted); ok {
		return m
	}
	if m, ok := parseJSON(extracted); ok {
		return m
	}
	return map[string]any{}
}

// Extract 去掉代码块标记后，截取第一个 '{' 到最后一个 '}' 之间的内容
func Extract(text string) string {
	cleaned := StripFences(text)
	start := strings.Index(cleaned, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(cleaned, "}")
	if end <= start {
		return ""
	}
	return strings.TrimSpace(cleaned[start : end+1])
}

// StripFences 删除所有代码块标记
func StripFences(text string) string {
	return fencePattern.ReplaceAllString(text, "")
}

// ParseRiskProfile 解析风险画像 JSON；ok 表示解析出了非空字典
func ParseRiskProfile(raw string) (models.RiskProfileRecord, bool) {
	m := Parse(raw)
	if len(m) == 0 {
		return nil, false
	}
	return models.RiskProfileRecord(m), true
}

// parseLiteral 宽松字面量解析
// 先把单引号、True/False/None、元组、尾随逗号改写为 JSON；
// 改写后仍不合法时（如未加引号的键）交给 YAML flow 语法
func parseLiteral(s string) (result map[string]any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = nil, false
		}
	}()

	if requoted, err := requote(s); err == nil {
		if m, ok := parseJSON(requoted); ok {
			return m, true
		}
	}

	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	m, isMap := normalize(v).(map[string]any)
	return m, isMap
}

func parseJSON(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return normalize(m).(map[string]any), true
}

// normalize 统一 YAML/JSON 的解码结果：key 一律为 string，数字一律为 float64
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
