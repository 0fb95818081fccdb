package credential

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// APIKeyEnv is where a selected key is exported for the rest of the process.
const APIKeyEnv = "GEMINI_API_KEY"

// keyEnvVars are checked in order
var keyEnvVars = []string{APIKeyEnv, "API_KEY", "GOOGLE_API_KEY"}

// ErrEmptyKey is returned when the selection flow produced no key.
var ErrEmptyKey = errors.New("no API key entered")

// Prompter asks the user for an API key.
type Prompter func(ctx context.Context) (string, error)

// EnvHost keeps the selected key in the process environment.
type EnvHost struct {
	prompt Prompter
}

// NewEnvHost returns a host that prompts with prompt, or with a huh password
// form when prompt is nil.
func NewEnvHost(prompt Prompter) *EnvHost {
	if prompt == nil {
		prompt = FormPrompter
	}
	return &EnvHost{prompt: prompt}
}

// HasSelectedAPIKey reports whether any supported variable holds a key.
func (h *EnvHost) HasSelectedAPIKey(ctx context.Context) (bool, error) {
	return h.APIKey() != "", nil
}

// OpenSelectKey prompts for a key and exports it.
func (h *EnvHost) OpenSelectKey(ctx context.Context) error {
	key, err := h.prompt(ctx)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	return os.Setenv(APIKeyEnv, key)
}

// APIKey re-reads the environment on every call so a newly selected key takes
// effect without a restart.
func (h *EnvHost) APIKey() string {
	for _, name := range keyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// FormPrompter asks for the key with a masked huh input.
func FormPrompter(ctx context.Context) (string, error) {
	var key string
	input := huh.NewInput().
		Title("Gemini API key").
		Description("Paste a key from https://aistudio.google.com/apikey.\nVideo generation requires a key with billing enabled.").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return ErrEmptyKey
			}
			return nil
		}).
		Value(&key)

	err := huh.NewForm(huh.NewGroup(input)).
		WithTheme(huh.ThemeCatppuccin()).
		RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetAPIKeyHelp returns help text for setting up the API key
func GetAPIKeyHelp() string {
	return `logomotion needs a Gemini API key to generate logos and videos.

1. Go to https://aistudio.google.com/apikey
2. Sign in with your Google account
3. Click "Create API key" (video generation needs a paid project)
4. Copy the API key
5. Set the environment variable:

   export GEMINI_API_KEY="your-api-key"

Or create a .env file with:
   GEMINI_API_KEY=your-api-key

Billing: https://ai.google.dev/gemini-api/docs/billing`
}
