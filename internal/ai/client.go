package ai

import (
	"context"
	"fmt"
	"strings"

	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/scraper"
)

// Completion is one model answer and what it cost.
type Completion struct {
	Text   string
	Tokens int
}

// Completer is the interface for AI providers
type Completer interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

// Factory builds a Completer for the API key of a run.
type Factory func(ctx context.Context, apiKey string) (Completer, error)

// NewFactory picks the provider named in cfg.
func NewFactory(cfg config.ClassifierConfig) Factory {
	return func(ctx context.Context, apiKey string) (Completer, error) {
		switch cfg.Provider {
		case "gemini":
			return NewGeminiClient(ctx, apiKey, cfg.Model)
		case "groq":
			base := cfg.BaseURL
			if base == "" {
				base = GroqBaseURL
			}
			model := cfg.Model
			if model == "" {
				model = "llama-3.3-70b-versatile"
			}
			return NewChatClient(apiKey, model, base), nil
		case "openai", "":
			return NewChatClient(apiKey, cfg.Model, cfg.BaseURL), nil
		}
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

// buildSystemPrompt creates the system instruction for the matching model
func buildSystemPrompt(affirmative string) string {
	return fmt.Sprintf(`You are a job-matching assistant. The user will provide a set of conditions they want in a job, then provide a single job listing. Your task is to determine if the provided job listing matches ANY of the user's specified conditions.

To do this, you should:
1. Interpret the job listing details (title, location, and/or description) and compare them with the user's criteria in a flexible way.
2. Use your reasoning to determine if the listing meets ANY of the user's conditions.
3. Output strictly "%s" if the listing meets any of the conditions; otherwise, output strictly "NO". No explanations.

Do not provide any additional text apart from "%s" or "NO".`, affirmative, affirmative)
}

// buildUserPrompt lists the conditions and the listing being judged
func buildUserPrompt(l *scraper.Listing, rc config.RunConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conditions: %s.\n", strings.Join(rc.IncludeKeywords, ", "))
	if len(rc.ExcludeKeywords) > 0 {
		fmt.Fprintf(&b, "Avoid: %s.\n", strings.Join(rc.ExcludeKeywords, ", "))
	}
	fmt.Fprintf(&b, "Location Requirements: %s\n\n", strings.Join(rc.LocationRequirements, ", "))
	b.WriteString("Job Listing:\n```\n")
	fmt.Fprintf(&b, "Title: %s\nLocation: %s\nDescription: %s\n", l.Title, l.Location, l.Description)
	b.WriteString("```")
	return b.String()
}
