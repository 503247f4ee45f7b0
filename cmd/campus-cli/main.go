package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusdesk/internal/cli/command"
	"campusdesk/internal/cli/config"
	"campusdesk/internal/cli/repl"
	"campusdesk/internal/cli/state"
	"campusdesk/pkg/client"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := flag.String("token", "", "Override session token")
	statePath := flag.String("state", "", "Override session state path")
	pretty := flag.Bool("pretty", false, "Print problems and profiles as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	session, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load session state failed: %v\n", err)
		os.Exit(1)
	}
	if *token != "" {
		session.Token = *token
	}
	if !session.LoggedIn(time.Now()) {
		session = state.Session{}
	}

	env := &command.Env{
		Client:  client.New(cfg.BaseURL, client.WithTimeout(cfg.Timeout), client.WithToken(session.Token)),
		Session: &session,
		Out:     os.Stdout,
		Pretty:  cfg.PrettyJSON != nil && *cfg.PrettyJSON,
		Persist: func(st state.Session) error {
			if st.Token == "" {
				return state.Clear(cfg.TokenStatePath)
			}
			return state.Save(cfg.TokenStatePath, st)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := repl.New(env, command.Registry()).Run(ctx, cfg.HistoryFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
