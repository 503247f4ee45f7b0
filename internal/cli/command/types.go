package command

import (
	"context"
	"errors"
	"io"
	"strings"

	"campusdesk/internal/cli/state"
	"campusdesk/pkg/client"
)

// ErrMissingInput is returned when an argument is absent and cannot be prompted for.
var ErrMissingInput = errors.New("missing input")

// Env is what a command runs against.
type Env struct {
	Client  *client.Client
	Session *state.Session
	Out     io.Writer
	// Pretty prints problems and profiles as indented JSON.
	Pretty bool
	// Prompt asks for a missing value; secret hides the echo. Nil disables prompting.
	Prompt func(prompt string, secret bool) (string, error)
	// Persist stores Session after login or logout.
	Persist func(state.Session) error
}

// Command defines a CLI command binding.
type Command struct {
	Name         string
	Usage        string
	Summary      string
	MinArgs      int
	MaxArgs      int // -1 is unbounded
	RequiresAuth bool
	Run          func(ctx context.Context, env *Env, args []string) error
}

// Accepts reports whether n arguments fit the command.
func (c Command) Accepts(n int) bool {
	if n < c.MinArgs {
		return false
	}
	return c.MaxArgs < 0 || n <= c.MaxArgs
}

// ParseStringList splits a comma separated value and drops empty items.
func ParseStringList(value string) []string {
	raw := strings.Split(value, ",")
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// argOrPrompt returns args[i], or prompts for it when absent.
func argOrPrompt(env *Env, args []string, i int, prompt string, secret bool) (string, error) {
	if i < len(args) && args[i] != "" {
		return args[i], nil
	}
	if env.Prompt == nil {
		return "", ErrMissingInput
	}
	value, err := env.Prompt(prompt+": ", secret)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrMissingInput
	}
	return value, nil
}
