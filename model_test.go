package main

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/imjasonh/chesslogic/internal/chess"
)

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEscape}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

// repeat returns msg n times.
func repeat(msg tea.Msg, n int) []tea.Msg {
	out := make([]tea.Msg, n)
	for i := range out {
		out[i] = msg
	}
	return out
}

// seat builds two matched models for a fresh game from fen.
func seat(t *testing.T, fen string) (white, black model, session *GameSession) {
	t.Helper()
	gm := newManager(t, fen)
	r := lipgloss.NewRenderer(io.Discard)
	wp, bp := newPlayer("alice"), newPlayer("bob")
	white, black = newModel(gm, wp, r), newModel(gm, bp, r)
	gm.AddPlayer(wp)
	gm.AddPlayer(bp)

	white = send(white, waitFor(t, wp, "matched"))
	black = send(black, waitFor(t, bp, "matched"))
	return white, black, gm.GetGameSession(wp.ID)
}

// goTo moves the cursor from a1 to sq.
func goTo(m model, sq string) model {
	m.cursorRow, m.cursorCol = 0, 0
	msgs := append(repeat(keyRight, int(sq[0]-'a')), repeat(keyUp, int(sq[1]-'1'))...)
	return send(m, msgs...)
}

func TestWaitingModelShowsPreview(t *testing.T) {
	gm := newManager(t, chess.StartFEN)
	p := newPlayer("solo")
	m := newModel(gm, p, lipgloss.NewRenderer(io.Discard))
	gm.AddPlayer(p)

	view := m.View()
	if !strings.Contains(view, "Waiting for an opponent") || !strings.Contains(view, "Position in queue: 1") {
		t.Errorf("waiting view:\n%s", view)
	}

	m = send(m, keyUp, keyRight, keyEnter)
	if m.cursor().String() != "b2" {
		t.Errorf("cursor = %s, want b2", m.cursor())
	}
	if m.selected != nil {
		t.Error("waiting players cannot select pieces")
	}
	if !strings.Contains(m.View(), "Piece: White Pawn") {
		t.Errorf("info panel should describe b2:\n%s", m.View())
	}
}

func TestModelPlaysMove(t *testing.T) {
	white, black, session := seat(t, chess.StartFEN)
	if !white.isMyTurn || black.isMyTurn {
		t.Fatal("white should be on move")
	}

	white = goTo(white, "e2")
	white = send(white, keyEnter)
	if white.selected == nil || white.selected.String() != "e2" {
		t.Fatalf("selected = %v, want e2", white.selected)
	}
	if white.validMoves.Count() != 2 {
		t.Errorf("e2 highlights %d squares, want 2", white.validMoves.Count())
	}
	if view := white.View(); !strings.Contains(view, "Valid moves:") {
		t.Errorf("view should list valid moves:\n%s", view)
	}

	white = send(white, keyUp, keyUp, keyEnter)
	if white.selected != nil || white.isMyTurn {
		t.Error("after moving, the selection clears and the turn passes")
	}
	if got := session.FEN(); got != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Errorf("FEN = %s", got)
	}

	black = send(black, waitFor(t, black.player, "move"))
	if !black.isMyTurn {
		t.Error("black should be on move after the update")
	}
	if p := black.snap.Board.At(chess.NewSquare(4, 4)); !p.Is(chess.Pawn) || !p.IsColor(chess.White) {
		t.Errorf("black's board has %s on e4", p.Name())
	}
	if !strings.Contains(black.View(), "Last move: e2 -> e4") {
		t.Errorf("black view:\n%s", black.View())
	}
}

func TestModelRefreshesOnHintAfterMissedMove(t *testing.T) {
	white, black, session := seat(t, chess.StartFEN)

	white = goTo(white, "e2")
	white = send(white, keyEnter, keyUp, keyUp, keyEnter)
	if session.IsPlayerTurn(white.player.ID) {
		t.Fatal("white's move was not played")
	}

	// The move update never reaches black's model.
	waitFor(t, black.player, "move")
	if black.isMyTurn {
		t.Fatal("black has not seen the move yet")
	}

	white.manager.BroadcastUpdate(white.player.ID, GameUpdate{Type: "deselect"})
	black = send(black, waitFor(t, black.player, "deselect"))
	if !black.isMyTurn {
		t.Error("black should be on move after any session update")
	}
	if p := black.snap.Board.At(chess.NewSquare(4, 4)); !p.Is(chess.Pawn) || !p.IsColor(chess.White) {
		t.Errorf("black's board has %s on e4", p.Name())
	}
}

func TestModelKeepsSelectionOnIllegalTarget(t *testing.T) {
	white, _, session := seat(t, chess.StartFEN)

	white = goTo(white, "e2")
	white = send(white, keyEnter, keyUp, keyUp, keyUp, keyEnter)
	if white.selected == nil {
		t.Fatal("an illegal target should keep the selection")
	}
	if white.message == "" || !strings.Contains(white.View(), white.message) {
		t.Errorf("rejection should be shown, message = %q", white.message)
	}
	if got := session.FEN(); got != chess.StartFEN {
		t.Errorf("position changed: %s", got)
	}

	white = send(white, keyEsc)
	if white.selected != nil || white.validMoves.Count() != 0 {
		t.Error("escape should clear the selection")
	}
}

func TestModelIgnoresOpponentPieces(t *testing.T) {
	white, black, _ := seat(t, chess.StartFEN)

	white = goTo(white, "e7")
	white = send(white, keyEnter)
	if white.selected != nil {
		t.Error("white selected a black piece")
	}

	black = send(black, keyUp, keyEnter)
	if black.cursorRow != 0 || black.selected != nil {
		t.Error("black should not act on white's turn")
	}
}

func TestModelPromotionPrompt(t *testing.T) {
	white, black, session := seat(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")

	white = goTo(white, "a7")
	white = send(white, keyEnter, keyUp, keyEnter)
	if !white.awaitingMyPromotion() {
		t.Fatal("white should be asked to promote")
	}
	if !strings.Contains(white.View(), "PROMOTE YOUR PAWN") {
		t.Errorf("missing prompt:\n%s", white.View())
	}

	black = send(black, waitFor(t, black.player, "move"))
	if black.isMyTurn || black.awaitingMyPromotion() {
		t.Error("black must wait for white's promotion")
	}

	// q promotes here instead of quitting.
	next, cmd := white.Update(runes("q"))
	white = next.(model)
	if cmd != nil {
		t.Error("q during a promotion should not quit")
	}
	if got := session.FEN(); got != "Q3k3/8/8/8/8/8/8/4K3 b - - 0 1" {
		t.Errorf("FEN = %s", got)
	}
	if white.awaitingMyPromotion() || white.isMyTurn {
		t.Error("promotion should hand the move to black")
	}

	black = send(black, waitFor(t, black.player, "promote"))
	if !black.isMyTurn || !strings.Contains(black.View(), "Black is in check!") {
		t.Errorf("black view:\n%s", black.View())
	}
}

func TestModelOpponentDisconnect(t *testing.T) {
	white, black, _ := seat(t, chess.StartFEN)

	white.manager.RemovePlayer(black.player.ID)
	white = send(white, waitFor(t, white.player, "opponent_disconnected"))
	if white.gameState != "opponent_disconnected" || white.isMyTurn {
		t.Errorf("state = %s, myTurn = %v", white.gameState, white.isMyTurn)
	}
	if !strings.Contains(white.View(), "OPPONENT DISCONNECTED") {
		t.Errorf("view:\n%s", white.View())
	}

	white = send(white, keyDown, keyUp, keyUp)
	if white.cursorRow != 2 {
		t.Errorf("cursor row = %d, want 2", white.cursorRow)
	}
}

func TestModelQuit(t *testing.T) {
	white, _, _ := seat(t, chess.StartFEN)
	if _, cmd := white.Update(runes("q")); cmd == nil {
		t.Error("q should quit")
	}
	if _, cmd := white.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c should quit")
	}
}
