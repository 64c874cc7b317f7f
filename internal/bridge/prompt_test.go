package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmbridge/internal/engine"
)

func echoGen(ctx context.Context, prompt string, params engine.Params, onToken func(string) error) (engine.Result, error) {
	return engine.Result{Text: "ok"}, nil
}

func TestPromptTemplate_EngineReceivesComposedPrompt(t *testing.T) {
	pt := PromptTemplate{
		System:   "You are Aoi's diary assistant.",
		Template: "{{.System}}\n\nCategory: {{.Vars.category}}\nEntry: {{.Prompt}}\n\nAI:",
		Vars:     map[string]string{"category": "daily"},
	}
	_, b, eng := newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: pt}})

	_, err := b.Predict(context.Background(), "Tell me about today")
	require.NoError(t, err)
	require.Len(t, eng.Prompts(), 1)
	assert.Equal(t, "You are Aoi's diary assistant.\n\nCategory: daily\nEntry: Tell me about today\n\nAI:", eng.Prompts()[0])
}

func TestPromptTemplate_SystemOnlyUsesDefaultLayout(t *testing.T) {
	_, b, eng := newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: PromptTemplate{System: "Be kind."}}})
	_, err := b.Predict(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"Be kind.\n\nhello"}, eng.Prompts())
}

func TestPromptTemplate_ZeroValuePassesThrough(t *testing.T) {
	_, b, eng := newScriptBridge(t, echoGen, Config{})
	_, err := b.Predict(context.Background(), "as is")
	require.NoError(t, err)
	assert.Equal(t, []string{"as is"}, eng.Prompts())
}

func TestPromptTemplate_BlankPromptStillRejected(t *testing.T) {
	_, b, eng := newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: PromptTemplate{System: "Be kind."}}})
	_, err := b.Predict(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrInvalidPrompt))
	assert.Zero(t, eng.Calls())
}

func TestPromptTemplate_NULFromVarsRejected(t *testing.T) {
	pt := PromptTemplate{Template: "{{.Vars.name}}: {{.Prompt}}", Vars: map[string]string{"name": "a\x00b"}}
	_, b, eng := newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: pt}})
	_, err := b.Predict(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrInvalidPrompt))
	assert.Zero(t, eng.Calls())
}

func TestPromptTemplate_Errors(t *testing.T) {
	_, err := PromptTemplate{Template: "{{.Prompt"}.Compile()
	require.Error(t, err)

	_, b, eng := newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: PromptTemplate{Template: "{{.Prompt"}}})
	_, err = b.Predict(context.Background(), "hi")
	require.Error(t, err)
	assert.False(t, IsInferenceFailure(err))

	_, b, eng = newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: PromptTemplate{Template: "{{.Vars.missing}} {{.Prompt}}"}}})
	_, err = b.Predict(context.Background(), "hi")
	require.Error(t, err)
	assert.Zero(t, eng.Calls())
}

func TestPromptTemplate_VarsAreCopied(t *testing.T) {
	vars := map[string]string{"who": "Aoi"}
	_, b, eng := newScriptBridge(t, echoGen, Config{Generation: GenerationConfig{Prompt: PromptTemplate{Template: "{{.Vars.who}}: {{.Prompt}}", Vars: vars}}})
	vars["who"] = "someone else"
	_, err := b.Predict(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Aoi: hi"}, eng.Prompts())
}
