// Command taskboard is the terminal front end for the task backend. It wires
// the session manager, the HTTP layer, and the observable collection stores
// together, then exposes them as subcommands: sign in and out, manage tasks
// and users, flip the theme, or watch the collections converge in the
// background.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/taskboard-go/auth"
	"github.com/user/taskboard-go/background"
	"github.com/user/taskboard-go/config"
	"github.com/user/taskboard-go/httpapi"
	"github.com/user/taskboard-go/logging"
	"github.com/user/taskboard-go/storage"
	"github.com/user/taskboard-go/tasks"
	"github.com/user/taskboard-go/theme"
	"github.com/user/taskboard-go/users"
)

// loginPrompt is the terminal Navigator: "going back to the login screen"
// means telling the user to sign in again.
type loginPrompt struct{}

func (loginPrompt) NavigateToLogin() {
	fmt.Fprintln(os.Stderr, "Session ended. Run `taskboard login` to sign in again.")
}

// appState carries the wired services between the Before hook and the
// subcommand actions.
type appState struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	auth   *auth.Service
	tasks  *tasks.Store
	users  *users.Store
	theme  *theme.Service
}

// newAppState performs the startup wiring: configuration, logging, durable
// storage, the HTTP client, and the services on top. The forced-logout hook is
// registered last, once the session manager exists.
func newAppState() (*appState, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.StateDir)
	if err != nil {
		return nil, err
	}

	client := httpapi.New(cfg.API, store, logger)
	authService := auth.NewService(store, client, loginPrompt{}, logger)
	client.OnUnauthorized(authService.ForceLogout)

	return &appState{
		cfg:    cfg,
		logger: logger,
		auth:   authService,
		tasks:  tasks.NewStore(client, logger),
		users:  users.NewStore(client, logger),
		theme:  theme.NewService(store, logger),
	}, nil
}

const stateKey = "state"

func fromContext(c *cli.Context) *appState {
	return c.App.Metadata[stateKey].(*appState)
}

func main() {
	app := &cli.App{
		Name:     "taskboard",
		Usage:    "manage tasks against the taskboard backend",
		Metadata: map[string]interface{}{},
		Before: func(c *cli.Context) error {
			state, err := newAppState()
			if err != nil {
				return err
			}
			c.App.Metadata[stateKey] = state
			return nil
		},
		After: func(c *cli.Context) error {
			if state, ok := c.App.Metadata[stateKey].(*appState); ok {
				_ = state.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(),
			signupCommand(),
			logoutCommand(),
			whoamiCommand(),
			taskCommand(),
			userCommand(),
			themeCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authenticate and persist the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(c *cli.Context) error {
			state := fromContext(c)
			if err := state.auth.Login(c.Context, c.String("email"), c.String("password")); err != nil {
				return err
			}
			if user := state.auth.CurrentUser(); user != nil {
				fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
			} else {
				fmt.Println("Logged in")
			}
			return nil
		},
	}
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "register a new account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "role", Value: string(auth.RoleUser), Usage: "USER or ADMIN"},
		},
		Action: func(c *cli.Context) error {
			state := fromContext(c)
			draft := auth.SignupRequest{
				Name:     c.String("name"),
				Email:    c.String("email"),
				Password: c.String("password"),
				Role:     auth.Role(c.String("role")),
			}
			if err := state.auth.Signup(c.Context, draft); err != nil {
				return err
			}
			fmt.Println("Account created. Run `taskboard login` to sign in.")
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "clear the persisted session",
		Action: func(c *cli.Context) error {
			fromContext(c).auth.Logout()
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in user",
		Action: func(c *cli.Context) error {
			state := fromContext(c)
			if !state.auth.IsAuthenticated() {
				fmt.Println("Not logged in")
				return nil
			}
			user, err := state.auth.FetchProfile(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
}

func taskCommand() *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "manage tasks",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list tasks, optionally searched and filtered",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Usage: "task id or substring of title/description"},
					&cli.StringFlag{Name: "status", Value: tasks.StatusFilterAll, Usage: "all, pending, or completed"},
				},
				Action: func(c *cli.Context) error {
					state := fromContext(c)
					all, err := state.tasks.List(c.Context)
					if err != nil {
						return err
					}
					printTasks(tasks.Filter(all, c.String("query"), c.String("status")))
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "create a task",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description"},
				},
				Action: func(c *cli.Context) error {
					state := fromContext(c)
					created, err := state.tasks.Create(c.Context, tasks.NewDraft(c.String("title"), c.String("description")))
					if err != nil {
						return err
					}
					fmt.Printf("Created task %d\n", created.ID)
					return nil
				},
			},
			{
				Name:      "done",
				Usage:     "toggle a task's status by id",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					state := fromContext(c)
					id, err := taskIDArg(c)
					if err != nil {
						return err
					}
					all, err := state.tasks.List(c.Context)
					if err != nil {
						return err
					}
					for _, task := range all {
						if task.ID == id {
							toggled, err := state.tasks.ToggleStatus(c.Context, task)
							if err != nil {
								return err
							}
							fmt.Printf("Task %d is now %s\n", toggled.ID, toggled.Status)
							return nil
						}
					}
					return fmt.Errorf("no task with id %d", id)
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a task by id",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					state := fromContext(c)
					id, err := taskIDArg(c)
					if err != nil {
						return err
					}
					if err := state.tasks.Remove(c.Context, id); err != nil {
						return err
					}
					fmt.Printf("Deleted task %d\n", id)
					return nil
				},
			},
		},
	}
}

func taskIDArg(c *cli.Context) (int, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one task id argument")
	}
	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", c.Args().First())
	}
	return id, nil
}

func printTasks(list []tasks.Task) {
	if len(list) == 0 {
		fmt.Println("No tasks")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tDESCRIPTION\tCREATED")
	for _, task := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			task.ID, task.Status, task.Title, task.Description,
			task.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage user accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all users",
				Action: func(c *cli.Context) error {
					state := fromContext(c)
					list, err := state.users.List(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
					for _, user := range list {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", user.ID, user.Name, user.Email, user.Role)
					}
					w.Flush()
					return nil
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a user by id",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					state := fromContext(c)
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one user id argument")
					}
					id, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return fmt.Errorf("invalid user id %q", c.Args().First())
					}
					if err := state.users.Remove(c.Context, id); err != nil {
						return err
					}
					fmt.Printf("Deleted user %d\n", id)
					return nil
				},
			},
		},
	}
}

func themeCommand() *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "show or toggle the dark-mode preference",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the current preference",
				Action: func(c *cli.Context) error {
					printTheme(fromContext(c).theme.IsDarkMode())
					return nil
				},
			},
			{
				Name:  "toggle",
				Usage: "flip and persist the preference",
				Action: func(c *cli.Context) error {
					printTheme(fromContext(c).theme.Toggle())
					return nil
				},
			},
		},
	}
}

func printTheme(dark bool) {
	if dark {
		fmt.Println("dark")
	} else {
		fmt.Println("light")
	}
}

// watchCommand runs the background sync service and streams collection changes
// to the terminal until interrupted.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "keep collections synced and print changes as they arrive",
		Action: func(c *cli.Context) error {
			state := fromContext(c)
			if !state.auth.IsAuthenticated() {
				return fmt.Errorf("not logged in")
			}

			taskSub, taskCh := state.tasks.Subscribe()
			defer state.tasks.Unsubscribe(taskSub)
			userSub, userCh := state.users.Subscribe()
			defer state.users.Unsubscribe(userSub)

			refreshers := []background.Refresher{
				background.NewRefresher("tasks", func(ctx context.Context) error {
					_, err := state.tasks.List(ctx)
					return err
				}),
				background.NewRefresher("users", func(ctx context.Context) error {
					_, err := state.users.List(ctx)
					return err
				}),
			}

			stopChan := make(chan struct{})
			done := background.StartSyncService(state.cfg.Sync.Interval, refreshers, state.logger, stopChan)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			fmt.Printf("Watching (refresh every %s, Ctrl+C to stop)\n", state.cfg.Sync.Interval)
			for {
				select {
				case list := <-taskCh:
					fmt.Printf("tasks: %d cached\n", len(list))
				case list := <-userCh:
					fmt.Printf("users: %d cached\n", len(list))
				case <-quit:
					close(stopChan)
					<-done
					fmt.Println("Stopped")
					return nil
				}
			}
		},
	}
}
