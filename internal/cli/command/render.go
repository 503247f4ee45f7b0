package command

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"campusdesk/pkg/client"
)

const maxTitleWidth = 40

func printUser(env *Env, user *client.User) {
	if env.Pretty {
		printJSON(env, user)
		return
	}
	fmt.Fprintf(env.Out, "%s  %s  %s\n", user.SID, user.Name, user.Role)
	if len(user.Problems) > 0 {
		fmt.Fprintf(env.Out, "problems: %s\n", strings.Join(user.Problems, ", "))
	}
}

func printProblem(env *Env, p *client.Problem) {
	if env.Pretty {
		printJSON(env, p)
		return
	}
	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", p.ID)
	fmt.Fprintf(w, "title\t%s\n", p.Title)
	fmt.Fprintf(w, "status\t%s\n", p.Status)
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "tags\t%s\n", strings.Join(p.Tags, ", "))
	}
	if p.CreatedBy.SID != "" {
		fmt.Fprintf(w, "by\t%s (%s)\n", p.CreatedBy.Name, p.CreatedBy.SID)
	}
	fmt.Fprintf(w, "created\t%s\n", p.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "description\t%s\n", p.Description)
	if p.Response != nil {
		fmt.Fprintf(w, "response\t%s\n", *p.Response)
	}
	_ = w.Flush()
}

func printProblems(env *Env, problems []client.Problem) {
	if env.Pretty {
		printJSON(env, problems)
		return
	}
	if len(problems) == 0 {
		fmt.Fprintln(env.Out, "no problems")
		return
	}
	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tBY\tTITLE")
	for _, p := range problems {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Status, p.CreatedBy.SID, truncate(p.Title, maxTitleWidth))
	}
	_ = w.Flush()
}

func printJSON(env *Env, v interface{}) {
	formatted, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(env.Out, "%v\n", v)
		return
	}
	fmt.Fprintln(env.Out, string(formatted))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
