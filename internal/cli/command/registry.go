package command

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"campusdesk/internal/cli/state"
	"campusdesk/pkg/client"
)

// Registry returns all CLI commands keyed by name.
func Registry() map[string]Command {
	commands := []Command{
		{
			Name:    "register",
			Usage:   "register <sid> <name> [password] [role]",
			Summary: "create an account (role STUDENT or PROFESSOR, default STUDENT)",
			MinArgs: 2,
			MaxArgs: 4,
			Run:     runRegister,
		},
		{
			Name:    "login",
			Usage:   "login <sid> [password]",
			Summary: "log in and keep the session token",
			MinArgs: 1,
			MaxArgs: 2,
			Run:     runLogin,
		},
		{
			Name:         "logout",
			Usage:        "logout",
			Summary:      "revoke the session token",
			MaxArgs:      0,
			RequiresAuth: true,
			Run:          runLogout,
		},
		{
			Name:         "whoami",
			Usage:        "whoami",
			Summary:      "show the logged-in profile",
			MaxArgs:      0,
			RequiresAuth: true,
			Run:          runWhoami,
		},
		{
			Name:         "passwd",
			Usage:        "passwd [old] [new]",
			Summary:      "change your password; the session ends",
			MaxArgs:      2,
			RequiresAuth: true,
			Run:          runPasswd,
		},
		{
			Name:         "submit",
			Usage:        "submit <title> <description> [tag...]",
			Summary:      "submit a problem (students)",
			MinArgs:      2,
			MaxArgs:      -1,
			RequiresAuth: true,
			Run:          runSubmit,
		},
		{
			Name:         "mine",
			Usage:        "mine",
			Summary:      "list your problems (students)",
			MaxArgs:      0,
			RequiresAuth: true,
			Run:          runMine,
		},
		{
			Name:         "all",
			Usage:        "all",
			Summary:      "list every problem (professors)",
			MaxArgs:      0,
			RequiresAuth: true,
			Run:          runAll,
		},
		{
			Name:         "show",
			Usage:        "show <id>",
			Summary:      "show one problem",
			MinArgs:      1,
			MaxArgs:      1,
			RequiresAuth: true,
			Run:          runShow,
		},
		{
			Name:         "respond",
			Usage:        "respond <id> <response> [status]",
			Summary:      "respond to a problem (professors; status PENDING, INPROGRESS or RESOLVED)",
			MinArgs:      2,
			MaxArgs:      3,
			RequiresAuth: true,
			Run:          runRespond,
		},
		{
			Name:    "token",
			Usage:   "token [value]",
			Summary: "print the session token, or replace it",
			MaxArgs: 1,
			Run:     runToken,
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Name] = cmd
	}
	return result
}

// Names returns command names in sorted order.
func Names(commands map[string]Command) []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runRegister(ctx context.Context, env *Env, args []string) error {
	password, err := argOrPrompt(env, args, 2, "password", true)
	if err != nil {
		return err
	}
	role := ""
	if len(args) > 3 {
		role = strings.ToUpper(args[3])
	}
	user, err := env.Client.Register(ctx, client.RegisterRequest{
		SID:      args[0],
		Name:     args[1],
		Password: password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "registered %s (%s) as %s\n", user.SID, user.Name, user.Role)
	return nil
}

func runLogin(ctx context.Context, env *Env, args []string) error {
	password, err := argOrPrompt(env, args, 1, "password", true)
	if err != nil {
		return err
	}
	result, err := env.Client.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	*env.Session = state.Session{
		Token:     result.Token,
		SID:       result.User.SID,
		Role:      result.User.Role,
		ExpiresAt: result.ExpiresAt,
	}
	persist(env)
	fmt.Fprintf(env.Out, "logged in as %s (%s), token expires %s\n",
		result.User.SID, result.User.Role, result.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func runLogout(ctx context.Context, env *Env, _ []string) error {
	err := env.Client.Logout(ctx)
	// the local session is dropped even when the server already rejects the token
	dropSession(env)
	if err != nil && client.StatusCode(err) != http.StatusUnauthorized {
		return err
	}
	fmt.Fprintln(env.Out, "logged out")
	return nil
}

func runWhoami(ctx context.Context, env *Env, _ []string) error {
	user, err := env.Client.Check(ctx)
	if err != nil {
		return err
	}
	printUser(env, user)
	return nil
}

func runPasswd(ctx context.Context, env *Env, args []string) error {
	oldPassword, err := argOrPrompt(env, args, 0, "current password", true)
	if err != nil {
		return err
	}
	newPassword, err := argOrPrompt(env, args, 1, "new password", true)
	if err != nil {
		return err
	}
	if err := env.Client.ChangePassword(ctx, env.Session.SID, oldPassword, newPassword); err != nil {
		return err
	}
	dropSession(env)
	fmt.Fprintln(env.Out, "password changed, please log in again")
	return nil
}

func runSubmit(ctx context.Context, env *Env, args []string) error {
	var tags []string
	for _, raw := range args[2:] {
		tags = append(tags, ParseStringList(raw)...)
	}
	problem, err := env.Client.CreateProblem(ctx, client.CreateProblemRequest{
		Title:       args[0],
		Description: args[1],
		Tags:        tags,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "submitted %s\n", problem.ID)
	printProblem(env, problem)
	return nil
}

func runMine(ctx context.Context, env *Env, _ []string) error {
	problems, err := env.Client.MyProblems(ctx)
	if err != nil {
		return err
	}
	printProblems(env, problems)
	return nil
}

func runAll(ctx context.Context, env *Env, _ []string) error {
	problems, err := env.Client.AllProblems(ctx)
	if err != nil {
		return err
	}
	printProblems(env, problems)
	return nil
}

func runShow(ctx context.Context, env *Env, args []string) error {
	var (
		problem *client.Problem
		err     error
	)
	if env.Session.Role == client.RoleProfessor {
		problem, err = env.Client.Problem(ctx, args[0])
	} else {
		problem, err = env.Client.MyProblem(ctx, args[0])
	}
	if err != nil {
		return err
	}
	printProblem(env, problem)
	return nil
}

func runRespond(ctx context.Context, env *Env, args []string) error {
	status := ""
	if len(args) > 2 {
		status = strings.ToUpper(args[2])
	}
	problem, err := env.Client.Respond(ctx, args[0], client.RespondRequest{Response: args[1], Status: status})
	if err != nil {
		return err
	}
	printProblem(env, problem)
	return nil
}

func runToken(_ context.Context, env *Env, args []string) error {
	if len(args) == 1 {
		env.Session.Token = args[0]
		env.Client.SetToken(args[0])
		persist(env)
		fmt.Fprintln(env.Out, "token updated")
		return nil
	}
	if env.Session.Token == "" {
		fmt.Fprintln(env.Out, "token: <empty>")
		return nil
	}
	fmt.Fprintln(env.Out, env.Session.Token)
	return nil
}

func dropSession(env *Env) {
	*env.Session = state.Session{}
	env.Client.SetToken("")
	persist(env)
}

func persist(env *Env) {
	if env.Persist == nil {
		return
	}
	if err := env.Persist(*env.Session); err != nil {
		fmt.Fprintf(env.Out, "warning: %v\n", err)
	}
}
