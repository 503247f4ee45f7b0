package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"campusdesk/internal/cli/command"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

const defaultPrompt = "campusdesk> "

// ErrNotLoggedIn is returned for commands that need a session token.
var ErrNotLoggedIn = errors.New("not logged in, use: login <sid>")

// Session holds REPL state.
type Session struct {
	env      *command.Env
	commands map[string]command.Command
}

func New(env *command.Env, commands map[string]command.Command) *Session {
	return &Session{env: env, commands: commands}
}

// Run reads lines until exit, EOF or an interrupt on an empty line.
func (s *Session) Run(ctx context.Context, historyFile string) error {
	items := make([]readline.PrefixCompleterInterface, 0, len(s.commands)+2)
	for _, name := range command.Names(s.commands) {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.env.Out = rl.Stdout()
	s.env.Prompt = func(prompt string, secret bool) (string, error) {
		if secret {
			value, err := rl.ReadPassword(prompt)
			return string(value), err
		}
		rl.SetPrompt(prompt)
		defer rl.SetPrompt(defaultPrompt)
		return rl.Readline()
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}

		exit, err := s.Execute(ctx, line)
		if err != nil {
			s.printLine("error: %v", err)
		}
		if exit {
			s.printLine("bye")
			return nil
		}
	}
}

// Execute runs a single input line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return false, nil
	}

	name, args := strings.ToLower(tokens[0]), tokens[1:]
	switch name {
	case "exit", "quit":
		return true, nil
	case "help":
		s.printHelp()
		return false, nil
	}

	cmd, ok := s.commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q, try help", name)
	}
	if !cmd.Accepts(len(args)) {
		return false, fmt.Errorf("usage: %s", cmd.Usage)
	}
	if cmd.RequiresAuth && s.env.Session.Token == "" {
		return false, ErrNotLoggedIn
	}
	if err := cmd.Run(ctx, s.env, args); err != nil {
		if errors.Is(err, command.ErrMissingInput) {
			return false, fmt.Errorf("usage: %s", cmd.Usage)
		}
		return false, err
	}
	return false, nil
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	for _, name := range command.Names(s.commands) {
		cmd := s.commands[name]
		s.printLine("  %-40s %s", cmd.Usage, cmd.Summary)
	}
	s.printLine("  %-40s %s", "help", "show this help")
	s.printLine("  %-40s %s", "exit", "leave the shell")
	s.printLine("quote arguments with spaces: submit \"Wifi down\" \"No signal in hostel B\" network")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.env.Out, format+"\n", args...)
}
