package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperengineering/questboard/internal/board"
	"github.com/spf13/cobra"
)

var (
	boardJSONOutput bool
	resetConfirmed  bool
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show and work the quest board",
}

var boardShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the board with health, locks and progress",
	Args:  cobra.NoArgs,
	RunE:  runBoardShow,
}

var boardCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task or subtask as defeated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetCompleted(cmd, args[0], true)
	},
}

var boardUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Mark a task or subtask as not done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetCompleted(cmd, args[0], false)
	},
}

var boardNoteCmd = &cobra.Command{
	Use:   "note <task-id> <text>",
	Short: "Replace the note of a note task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBoardNote,
}

var boardResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all progress for the day",
	Args:  cobra.NoArgs,
	RunE:  runBoardReset,
}

var boardAudioCmd = &cobra.Command{
	Use:       "audio on|off",
	Short:     "Turn sound effects on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runBoardAudio,
}

func init() {
	addSessionFlags(boardCmd)
	boardShowCmd.Flags().BoolVar(&boardJSONOutput, "json", false, "Output in JSON format")
	boardResetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm the reset")

	boardCmd.AddCommand(boardShowCmd)
	boardCmd.AddCommand(boardCompleteCmd)
	boardCmd.AddCommand(boardUndoCmd)
	boardCmd.AddCommand(boardNoteCmd)
	boardCmd.AddCommand(boardResetCmd)
	boardCmd.AddCommand(boardAudioCmd)
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	v := s.board.View()
	if boardJSONOutput {
		return printJSON(cmd.OutOrStdout(), v)
	}
	renderBoard(cmd.OutOrStdout(), v)
	return nil
}

func runSetCompleted(cmd *cobra.Command, id string, completed bool) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.board.SetCompleted(ctx, id, completed); err != nil {
		return err
	}

	v := s.board.View()
	out := cmd.OutOrStdout()
	if completed {
		fmt.Fprintf(out, "Defeated %s.\n", id)
	} else {
		fmt.Fprintf(out, "Reopened %s.\n", id)
	}
	fmt.Fprintf(out, "Progress: %d/%d (%d%%)  XP %d  Level %d\n", v.Completed, v.Total, v.Percent, v.XP, v.Level)
	if v.AllComplete {
		fmt.Fprintln(out, "All quests complete!")
	}
	return nil
}

func runBoardNote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.board.SetNote(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved note for %s.\n", args[0])
	return nil
}

func runBoardReset(cmd *cobra.Command, args []string) error {
	if !resetConfirmed {
		return errors.New("reset clears all progress for the day; pass --yes to confirm")
	}
	ctx := context.Background()
	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.board.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Board reset.")
	return nil
}

func runBoardAudio(cmd *cobra.Command, args []string) error {
	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
	default:
		return fmt.Errorf("audio: want on or off, got %q", args[0])
	}

	ctx := context.Background()
	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.board.SetAudio(ctx, enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Audio %s.\n", args[0])
	return nil
}

// renderBoard prints the board as text.
func renderBoard(out io.Writer, v board.View) {
	verified := "not verified"
	if v.Authenticated {
		verified = "verified"
	}
	status := string(v.PlayerStatus)
	if status == "" {
		status = "-"
	}
	audio := "off"
	if v.AudioEnabled {
		audio = "on"
	}

	fmt.Fprintf(out, "Player: %s (%s, %s)\n", v.Player, status, verified)
	fmt.Fprintf(out, "Progress: %d/%d (%d%%)  XP %d  Level %d  Audio %s\n",
		v.Completed, v.Total, v.Percent, v.XP, v.Level, audio)

	for _, s := range v.Sections {
		fmt.Fprintln(out)
		heading := s.Title
		if s.Complete {
			heading += " (cleared)"
		}
		fmt.Fprintln(out, strings.TrimSpace(s.Icon+" "+heading))

		w := newTabWriter(out)
		for _, t := range s.Tasks {
			fmt.Fprintf(w, "  %s\t%s\tHP %3d\t%s\n", taskMark(t), t.ID, t.Health, t.Title)
			for _, sub := range t.Subtasks {
				mark := "[ ]"
				if sub.Completed {
					mark = "[x]"
				}
				fmt.Fprintf(w, "    %s\t%s\t\t%s\n", mark, sub.ID, sub.Title)
			}
			if t.Note != "" {
				fmt.Fprintf(w, "    \tnote\t\t%s\n", t.Note)
			}
		}
		w.Flush()
	}

	if v.AllComplete {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "All quests complete!")
	}
}

func taskMark(t board.TaskView) string {
	switch {
	case t.Completed:
		return "[x]"
	case t.Locked:
		return "[#]"
	default:
		return "[ ]"
	}
}
