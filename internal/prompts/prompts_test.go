package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	assert.Contains(t, set.Classifier.Mandate, "investment_advice")
	assert.Contains(t, set.Classifier.Mandate, "radar_chart")
	assert.Contains(t, set.Risk.Mandate, "risk_willingness")
	assert.NotEmpty(t, set.Reply.Conversation)
	assert.NotEmpty(t, set.Summarizer.Reports)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reply:\n  mandate: You are terse.\n"), 0o644))

	set, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "You are terse.", set.Reply.Mandate)
	// 未覆盖的字段保留内置值
	assert.Contains(t, set.Classifier.Mandate, "investment_advice")
	assert.NotEmpty(t, set.Reply.Reports)
}

func TestLoadKeepsBuiltinClassifier(t *testing.T) {
	builtin := MustDefault().Classifier
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classifier:\n  mandate: Answer yes.\n  input: \"Say:\"\nreply:\n  mandate: You are terse.\n"), 0o644))

	set, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, builtin, set.Classifier)
	assert.Equal(t, "You are terse.", set.Reply.Mandate)
}

func TestLoadRejectsEmptyMandate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk:\n  mandate: \"  \"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestThemes(t *testing.T) {
	themes, err := Themes()
	require.NoError(t, err)

	assert.Equal(t, "artificial intelligence", themes["ai"])
	assert.Equal(t, "technology hardware & equipment", themes["chips"])
}
