package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/example/task-tracker/client/remote"
	"github.com/example/task-tracker/domain/task"
	"github.com/urfave/cli/v3"
)

func newRegisterCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Create an account",
		ArgsUsage: "<username>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "account password", Sources: cli.EnvVars("TASKS_PASSWORD"), Required: true},
			&cli.StringFlag{Name: "confirm", Usage: "repeat the password"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			username := cmd.Args().First()
			if username == "" {
				return fmt.Errorf("usage: tasks register <username> --password <password>")
			}
			profile, err := rt.coord.Register(ctx, remote.Credentials{
				Username:        username,
				Password:        cmd.String("password"),
				ConfirmPassword: cmd.String("confirm"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s. Run 'tasks login %s' to sign in.\n", profile.Username, profile.Username)
			return nil
		},
	}
}

func newLoginCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Sign in and remember the session",
		ArgsUsage: "<username>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "account password", Sources: cli.EnvVars("TASKS_PASSWORD"), Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			username := cmd.Args().First()
			if username == "" {
				return fmt.Errorf("usage: tasks login <username> --password <password>")
			}
			profile, err := rt.coord.Login(ctx, username, cmd.String("password"))
			if err != nil {
				return err
			}
			name := username
			if profile != nil {
				name = profile.Username
			}
			fmt.Printf("Logged in as %s.\n", name)
			return nil
		},
	}
}

func newLogoutCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the saved session",
		Action: func(_ context.Context, _ *cli.Command) error {
			if err := rt.coord.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: func(ctx context.Context, _ *cli.Command) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			profile, err := rt.client.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", profile.Username, profile.ID)
			return nil
		},
	}
}

func newListCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List your tasks, newest first",
		Action: func(ctx context.Context, _ *cli.Command) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			if _, err := rt.coord.FetchTasks(ctx); err != nil {
				return err
			}
			return printTasks(os.Stdout, rt.tasks.State().Tasks)
		},
	}
}

func newAddCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create a task",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "task description"},
			&cli.StringFlag{Name: "status", Usage: "PENDING or COMPLETED"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			title := strings.Join(cmd.Args().Slice(), " ")
			draft := task.Draft{Title: title}
			if cmd.IsSet("description") {
				desc := cmd.String("description")
				draft.Description = &desc
			}
			if cmd.IsSet("status") {
				status, err := parseStatus(cmd.String("status"))
				if err != nil {
					return err
				}
				draft.Status = status
			}

			created, err := rt.coord.CreateTask(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %q.\n", created.ID, created.Title)
			return nil
		},
	}
}

func newUpdateCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change a task",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "new title"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "new description, empty to clear"},
			&cli.StringFlag{Name: "status", Usage: "PENDING or COMPLETED"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("usage: tasks update <id> [--title ...] [--description ...] [--status ...]")
			}

			var patch task.Patch
			if cmd.IsSet("title") {
				title := cmd.String("title")
				patch.Title = &title
			}
			if cmd.IsSet("description") {
				desc := cmd.String("description")
				patch.Description = &desc
			}
			if cmd.IsSet("status") {
				status, err := parseStatus(cmd.String("status"))
				if err != nil {
					return err
				}
				patch.Status = &status
			}
			return updateTask(ctx, rt, id, patch)
		},
	}
}

func newDoneCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "done",
		Usage:     "Mark a task completed",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("usage: tasks done <id>")
			}
			status := task.StatusCompleted
			return updateTask(ctx, rt, id, task.Patch{Status: &status})
		},
	}
}

func newRemoveCmd(rt *deps) *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a task",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("usage: tasks rm <id>")
			}
			if err := rt.coord.DeleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted %s.\n", id)
			return nil
		},
	}
}

func updateTask(ctx context.Context, rt *deps, id string, patch task.Patch) error {
	updated, err := rt.coord.UpdateTask(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s: %s [%s].\n", updated.ID, updated.Title, updated.Status)
	return nil
}

func parseStatus(raw string) (task.Status, error) {
	status := task.Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("status must be PENDING or COMPLETED, got %q", raw)
	}
	return status, nil
}

func printTasks(w io.Writer, tasks []task.Task) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.ID,
			t.Status,
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
			t.Title,
		)
	}
	return tw.Flush()
}
