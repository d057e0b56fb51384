// Package auth decides whether the selected player may change the board, and
// holds the password hashing helpers shared with the proxy.
package auth

import (
	"context"
	"strings"
)

// Verifier checks a player's password against the roster.
type Verifier interface {
	VerifyPlayer(ctx context.Context, playerID, password string) error
}

// Gate tracks the selected player and which player, if any, has been
// verified. Trust does not expire; it is dropped only when the selection
// changes.
type Gate struct {
	selected      string
	authenticated string
}

// NewGate restores a gate. A persisted authenticated id is kept only when it
// matches the selected player.
func NewGate(selected, authenticated string) *Gate {
	g := &Gate{selected: selected}
	if authenticated != "" && authenticated == selected {
		g.authenticated = authenticated
	}
	return g
}

// Selected returns the selected player id.
func (g *Gate) Selected() string { return g.selected }

// AuthenticatedID returns the verified player id, or "".
func (g *Gate) AuthenticatedID() string { return g.authenticated }

// IsAuthenticated reports whether the selected player is the verified one.
func (g *Gate) IsAuthenticated() bool {
	return g.selected != "" && g.authenticated == g.selected
}

// Select switches the selected player and always clears authentication.
func (g *Gate) Select(playerID string) {
	g.selected = playerID
	g.authenticated = ""
}

// Verify checks password for the selected player. On success the selected
// player becomes authenticated; on failure the gate is left unauthenticated.
func (g *Gate) Verify(ctx context.Context, v Verifier, password string) error {
	if g.selected == "" {
		return ErrNoPlayerSelected
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrPasswordRequired
	}
	g.authenticated = ""
	if err := v.VerifyPlayer(ctx, g.selected, password); err != nil {
		return err
	}
	g.authenticated = g.selected
	return nil
}

// Authorize returns ErrVerificationRequired unless the selected player is
// verified.
func (g *Gate) Authorize() error {
	if !g.IsAuthenticated() {
		return ErrVerificationRequired
	}
	return nil
}
