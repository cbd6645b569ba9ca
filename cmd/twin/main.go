package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	cl "fintwin/internal/cli"
	"fintwin/internal/config"
	"fintwin/internal/game"
	"fintwin/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const apology = "Sorry, the Financial Twin service could not be reached. Please try again in a moment."

func main() {
	_ = config.LoadDotEnv("")
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "twin",
		Short:        "Financial Twin terminal game",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newPlayCmd(cfg),
		newCareersCmd(&apiBase),
		newStartCmd(&apiBase),
		newDecideCmd(&apiBase),
		newStatusCmd(&apiBase),
		newEndCmd(&apiBase),
		newSyncCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newPlayCmd(cfg config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a game locally in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			content := game.DefaultContent()
			if cfg.ContentFile != "" {
				loaded, err := game.LoadContent(cfg.ContentFile)
				if err != nil {
					return err
				}
				content = loaded
			}

			name, err := promptOptional("Your name")
			if err != nil {
				return err
			}
			careerIDs := make([]string, len(content.Careers))
			for i, c := range content.Careers {
				careerIDs[i] = string(c.ID)
			}
			career, err := promptChoice("Career", careerIDs, careerIDs[0])
			if err != nil {
				return err
			}

			engine := game.NewEngine(content,
				game.WithScheduler(game.TimerScheduler{}),
				game.WithPacing(game.Pacing{Welcome: cfg.Pace, Reveal: cfg.Pace / 3}),
				game.WithListener(printMessage),
				game.WithClampPolicy(game.ParseClampPolicy(cfg.Clamp)),
			)
			if err := engine.Start(career, name); err != nil {
				return err
			}
			select {
			case <-engine.Ready():
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}

			for {
				printDecisionMenu()
				text, err := promptRequired("Your decision")
				if err != nil {
					return err
				}
				switch strings.ToLower(text) {
				case "end", "quit", "exit":
					_, err := engine.End()
					return err
				}
				var turnErr error
				if kind, ok := menuKind(text); ok {
					_, turnErr = engine.Choose(kind)
				} else {
					_, turnErr = engine.MakeDecision(text)
				}
				if turnErr != nil {
					return turnErr
				}
			}
		},
	}
}

func newCareersCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "careers",
		Short: "List the careers you can start with",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			careers, err := newClient(apiBase).Careers(ctx)
			if err != nil {
				return apologize(err)
			}
			renderCareers(careers)
			return nil
		},
	}
}

func newStartCmd(apiBase *string) *cobra.Command {
	var player, career string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a game on the Financial Twin service",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if strings.TrimSpace(player) == "" {
				if player, err = promptRequired("Your name"); err != nil {
					return err
				}
			}
			if strings.TrimSpace(career) == "" {
				if career, err = promptRequired("Career (student/entrepreneur/artist/banker)"); err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).StartGame(ctx, player, career)
			if err != nil {
				return apologize(err)
			}
			if err := cl.SaveSession(cl.Session{SessionID: out.SessionID, Player: player, Career: career}); err != nil {
				return err
			}
			printInfo(out.Content)
			fmt.Println()
			renderState(out.State, out.Metrics)
			printSuccess("Game started. Session " + out.SessionID + " saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "name", "", "player name")
	cmd.Flags().StringVar(&career, "career", "", "career id or name")
	return cmd
}

func newDecideCmd(apiBase *string) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "decide [decision text]",
		Short: "Make a decision in the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("start a game first: %w", err)
			}
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" && kind == "" {
				printDecisionMenu()
				if text, err = promptRequired("Your decision"); err != nil {
					return err
				}
				if k, ok := menuKind(text); ok {
					kind = string(k)
				}
			}
			idem := uuid.NewString()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Decide(ctx, sess.SessionID, text, kind, idem)
			if err != nil {
				return queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           cl.DecisionPath(sess.SessionID),
					Body:           cl.DecisionBody(text, kind),
					IdempotencyKey: idem,
				})
			}
			renderTurn(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "decision kind (invest, save, pay_debt, upgrade_skills, continue)")
	return cmd
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("start a game first: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Session(ctx, sess.SessionID)
			if err != nil {
				return apologize(err)
			}
			accent.Printf("%s the %s (%s) - %d turns\n", out.Player, out.Career, out.Stage, out.Turns)
			renderState(out.State, out.Metrics)
			return nil
		},
	}
}

func newEndCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "Finish the current game and see your summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("start a game first: %w", err)
			}
			if pending, err := syncq.Load(); err == nil && len(pending) > 0 {
				printWarn(fmt.Sprintf("%d queued decisions have not been synced. Run `twin sync` first.", len(pending)))
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			out, err := newClient(apiBase).EndGame(ctx, sess.SessionID)
			if err != nil {
				return apologize(err)
			}
			renderEnd(out)
			return cl.ClearSession()
		},
	}
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay decisions queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := newClient(apiBase)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			replayed, remaining, err := syncq.Replay(func(q syncq.Command) error {
				_, err := client.Do(ctx, q.Method, q.Path, q.Body, q.IdempotencyKey)
				if err != nil && isAPIStructuredError(err) {
					printError(fmt.Sprintf("Dropped %s %s: %v", q.Method, q.Path, err))
					return nil
				}
				return err
			})
			if err != nil && !errors.Is(err, cl.ErrNetwork) {
				return err
			}
			if err != nil {
				printWarn(apology)
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", replayed, len(remaining)))
			return nil
		},
	}
}

func queueOnNetworkError(err error, cmd syncq.Command) error {
	if err == nil {
		return nil
	}
	if isAPIStructuredError(err) {
		return err
	}
	if qerr := syncq.Push(cmd); qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %w", errors.Join(err, qerr))
	}
	printWarn("Offline: decision queued. Run `twin sync` when the service is back.")
	return nil
}

func apologize(err error) error {
	if errors.Is(err, cl.ErrNetwork) {
		printError(apology)
		return nil
	}
	return err
}

func isAPIStructuredError(err error) bool {
	var apiErr *cl.APIError
	return errors.As(err, &apiErr)
}

func menuKind(text string) (game.DecisionKind, bool) {
	text = strings.TrimSpace(text)
	for i, k := range game.DecisionKinds {
		if text == fmt.Sprint(i+1) {
			return k, true
		}
	}
	return game.DecisionUnmatched, false
}
