package response

import (
	"context"
	"fmt"
	"strings"

	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/pkg/llm"
)

// Snippet is one grounding span handed to the synthesizer, tagged with the
// stage and source it came from so the answer can be traced back.
type Snippet struct {
	Stage    string
	SourceId string
	Title    string
	Text     string
}

// Params are the generation knobs resolved from the pipeline config.
type Params struct {
	Temperature float64
	MaxTokens   int
	Model       string
}

// GenerationError signals a generation provider failure. When generation is
// the terminal stage, the orchestrator falls back to the configured message
// instead of propagating this to the end user.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Generator wraps the generation capability: synthesis from grounding
// context, and polishing of retrieved answers.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Generate synthesizes an answer from the accumulated grounding context.
// An empty context is allowed: the prompt then instructs the model to answer
// best-effort and say when it cannot.
func (g *Generator) Generate(ctx context.Context, query string, snippets []Snippet, params Params) (string, error) {
	promptText := buildGroundedPrompt(query, snippets)

	opts := optionsFor(params)
	answer, err := g.llmProvider.Generate(ctx, promptText, opts...)
	if err != nil {
		return "", &GenerationError{Cause: err}
	}

	g.logger.Info("generation", "answer synthesized", map[string]interface{}{
		"snippets": len(snippets),
	})

	return strings.TrimSpace(answer), nil
}

// Polish rewrites a retrieved answer for fluency without changing its facts.
// On failure the raw answer is still usable; callers decide.
func (g *Generator) Polish(ctx context.Context, rawAnswer, query string, params Params) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Rewrite the reference answer below so it reads naturally as a reply to the user's question.\n")
	prompt.WriteString("Keep every fact exactly as stated. Do not add information. Do not drop information.\n\n")
	prompt.WriteString("Question: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nReference answer:\n")
	prompt.WriteString(rawAnswer)
	prompt.WriteString("\n\nRewritten answer:")

	opts := optionsFor(params)
	polished, err := g.llmProvider.Generate(ctx, prompt.String(), opts...)
	if err != nil {
		return "", &GenerationError{Cause: err}
	}

	return strings.TrimSpace(polished), nil
}

func optionsFor(params Params) []llm.Option {
	opts := []llm.Option{}
	if params.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(params.Temperature))
	}
	if params.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(params.MaxTokens))
	}
	if params.Model != "" {
		opts = append(opts, llm.WithModel(params.Model))
	}
	return opts
}

func buildGroundedPrompt(query string, snippets []Snippet) string {
	var prompt strings.Builder

	if len(snippets) > 0 {
		prompt.WriteString("<reference_material>\n")
		prompt.WriteString("Answer using ONLY the sources below. Each source is tagged with where it came from.\n\n")
		for i, s := range snippets {
			header := fmt.Sprintf("--- SOURCE %d [%s", i+1, s.Stage)
			if s.SourceId != "" {
				header += " " + s.SourceId
			}
			header += "] ---"
			prompt.WriteString(header)
			prompt.WriteString("\n")
			if s.Title != "" {
				prompt.WriteString(s.Title)
				prompt.WriteString("\n")
			}
			prompt.WriteString(s.Text)
			prompt.WriteString("\n")
		}
		prompt.WriteString("</reference_material>\n\n")
		prompt.WriteString("Answer the question from the reference material. If the material does not cover it, say so.\n")
	} else {
		prompt.WriteString("No reference material is available for this question. ")
		prompt.WriteString("Answer from general knowledge if you can, and say clearly when you are unsure.\n")
	}

	prompt.WriteString("\nQuestion: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nAnswer:")

	return prompt.String()
}
