package adk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/ava/internal/adk/openai"
	"github.com/run-bigpig/ava/internal/models"
)

func TestCreateOpenAIModel(t *testing.T) {
	llm, err := NewModelFactory().CreateModel(context.Background(), &models.AIConfig{
		Provider:     models.AIProviderOpenAI,
		ModelName:    "gpt-4o",
		APIKey:       "sk-test",
		BaseURL:      "http://localhost:1234/v1",
		NoSystemRole: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", llm.Name())

	om, ok := llm.(*openai.OpenAIModel)
	require.True(t, ok)
	assert.True(t, om.NoSystemRole)
}

func TestCreateModelErrors(t *testing.T) {
	f := NewModelFactory()

	_, err := f.CreateModel(context.Background(), &models.AIConfig{Provider: models.AIProviderOpenAI})
	assert.ErrorIs(t, err, ErrMissingModelName)

	_, err = f.CreateModel(context.Background(), &models.AIConfig{Provider: "claude", ModelName: "x"})
	assert.ErrorContains(t, err, "unsupported provider")
}
