package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/session"
)

func init() {
	track := &cobra.Command{
		Use:   "track",
		Short: "Record progress in the current session",
		Long:  "Update the most recent active session. Pass --session-id to target a specific one.",
	}
	track.PersistentFlags().String("session-id", "", "Session ID (uses most recent if not provided)")

	task := &cobra.Command{
		Use:   "task [description]",
		Short: "Set the session task",
		Args:  cobra.MinimumNArgs(1),
		Run: trackRun(func(tr *session.Tracker, cmd *cobra.Command, args []string) error {
			return tr.UpdateTask(strings.Join(args, " "))
		}),
	}

	file := &cobra.Command{
		Use:   "file [path]",
		Short: "Record a modified file",
		Args:  cobra.ExactArgs(1),
		Run: trackRun(func(tr *session.Tracker, cmd *cobra.Command, args []string) error {
			return tr.AddFileModified(args[0])
		}),
	}

	decision := &cobra.Command{
		Use:   "decision [text]",
		Short: "Record a decision",
		Args:  cobra.MinimumNArgs(1),
		Run: trackRun(func(tr *session.Tracker, cmd *cobra.Command, args []string) error {
			rationale, _ := cmd.Flags().GetString("rationale")
			alternatives, _ := cmd.Flags().GetStringSlice("alternative")
			return tr.AddDecision(strings.Join(args, " "), rationale, alternatives)
		}),
	}
	decision.Flags().String("rationale", "", "Why this decision was made")
	decision.Flags().StringSlice("alternative", nil, "Alternative that was considered (repeatable)")

	problem := &cobra.Command{
		Use:   "problem [text]",
		Short: "Record a problem and optionally its solution",
		Args:  cobra.MinimumNArgs(1),
		Run: trackRun(func(tr *session.Tracker, cmd *cobra.Command, args []string) error {
			solution, _ := cmd.Flags().GetString("solution")
			return tr.AddProblem(strings.Join(args, " "), solution)
		}),
	}
	problem.Flags().String("solution", "", "How the problem was solved")

	note := &cobra.Command{
		Use:   "note [text]",
		Short: "Record a note",
		Args:  cobra.MinimumNArgs(1),
		Run: trackRun(func(tr *session.Tracker, cmd *cobra.Command, args []string) error {
			return tr.AddNote(strings.Join(args, " "))
		}),
	}

	todo := &cobra.Command{
		Use:   "todo [text]",
		Short: "Add a TODO, or remove one with --done",
		Args:  cobra.MinimumNArgs(1),
		Run: trackRun(func(tr *session.Tracker, cmd *cobra.Command, args []string) error {
			done, _ := cmd.Flags().GetBool("done")
			text := strings.Join(args, " ")
			if done {
				return tr.RemoveTodo(text)
			}
			return tr.AddTodo(text)
		}),
	}
	todo.Flags().Bool("done", false, "Mark the TODO as done (removes it)")

	track.AddCommand(task, file, decision, problem, note, todo)
	RootCmd.AddCommand(track)
}

func trackRun(fn func(tr *session.Tracker, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session-id")

		mgr, err := openManager()
		if err != nil {
			exitErr("track", err)
		}
		tr, err := findSession(mgr, sessionID)
		if err != nil {
			exitErr("track", err)
		}
		if err := fn(tr, cmd, args); err != nil {
			exitErr("track", err)
		}
		fmt.Printf("updated session: %s\n", tr.Data.SessionID)
	}
}
