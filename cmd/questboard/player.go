package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperengineering/questboard/internal/auth"
	"github.com/spf13/cobra"
)

var (
	playerJSONOutput bool
	playerPassword   string
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Select, verify and manage roster players",
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roster players",
	Args:  cobra.NoArgs,
	RunE:  runPlayerList,
}

var playerSelectCmd = &cobra.Command{
	Use:   "select <player-id>",
	Short: "Select the active player (drops verification)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayerSelect,
}

var playerLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify the selected player's password",
	Args:  cobra.NoArgs,
	RunE:  runPlayerLogin,
}

var playerToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip the selected player between Active and Inactive",
	Args:  cobra.NoArgs,
	RunE:  runPlayerToggle,
}

var playerHashCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for a roster password field",
	Args:  cobra.NoArgs,
	RunE:  runPlayerHash,
}

func init() {
	addSessionFlags(playerCmd)
	playerListCmd.Flags().BoolVar(&playerJSONOutput, "json", false, "Output in JSON format")
	for _, c := range []*cobra.Command{playerLoginCmd, playerToggleCmd, playerHashCmd} {
		c.Flags().StringVar(&playerPassword, "password", "", "Player password")
	}

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerSelectCmd)
	playerCmd.AddCommand(playerLoginCmd)
	playerCmd.AddCommand(playerToggleCmd)
	playerCmd.AddCommand(playerHashCmd)
}

func runPlayerList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	players := s.board.Players()
	selected, _ := s.board.SelectedPlayer()

	if playerJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"players":  players,
			"selected": selected.ID,
		})
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "\tID\tNAME\tSTATUS")
	for _, p := range players {
		mark := ""
		if p.ID == selected.ID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, p.ID, p.Name, p.Status)
	}
	return w.Flush()
}

func runPlayerSelect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.board.SelectPlayer(ctx, args[0]); err != nil {
		return err
	}
	p, _ := s.board.SelectedPlayer()
	fmt.Fprintf(cmd.OutOrStdout(), "Selected %s. Verify with: questboard player login --password ...\n", p.Name)
	return nil
}

func runPlayerLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.board.Login(ctx, playerPassword); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return fmt.Errorf("verification failed: %w", err)
		}
		return err
	}
	p, _ := s.board.SelectedPlayer()
	fmt.Fprintf(cmd.OutOrStdout(), "%s verified.\n", p.Name)
	return nil
}

func runPlayerToggle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	status, err := s.board.TogglePlayerStatus(ctx, playerPassword)
	if err != nil {
		return fmt.Errorf("status update failed: %w", err)
	}
	p, _ := s.board.SelectedPlayer()
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", p.Name, status)
	return nil
}

func runPlayerHash(cmd *cobra.Command, args []string) error {
	if playerPassword == "" {
		return auth.ErrPasswordRequired
	}
	hash, err := auth.HashPassword(playerPassword)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
