package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/imjasonh/chesslogic/internal/chess"
)

type boardStyles struct {
	cursor   lipgloss.Style
	selected lipgloss.Style
	target   lipgloss.Style
	light    lipgloss.Style
	dark     lipgloss.Style
	title    lipgloss.Style
	alert    lipgloss.Style
	info     lipgloss.Style
}

func newBoardStyles(r *lipgloss.Renderer) boardStyles {
	cell := r.NewStyle().Padding(0, 1)
	return boardStyles{
		cursor:   cell.Background(lipgloss.Color("1")),
		selected: cell.Background(lipgloss.Color("3")),
		target:   cell.Background(lipgloss.Color("2")),
		light:    cell.Background(lipgloss.Color("8")),
		dark:     cell.Background(lipgloss.Color("0")),
		title:    r.NewStyle().Bold(true),
		alert:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		info:     r.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Width(26),
	}
}

type model struct {
	manager *GameManager
	styles  boardStyles

	// Board state; cursorRow 0 is rank 1.
	snap       Snapshot
	cursorRow  int
	cursorCol  int
	selected   *chess.Square
	validMoves chess.Mask
	message    string

	// Multiplayer state
	player      *Player
	opponent    *Player
	gameSession *GameSession
	gameState   string // "waiting", "playing", "finished", "opponent_disconnected"
	isMyTurn    bool
}

func newModel(manager *GameManager, player *Player, r *lipgloss.Renderer) model {
	return model{
		manager:   manager,
		styles:    newBoardStyles(r),
		snap:      manager.Preview(),
		player:    player,
		gameState: "waiting",
	}
}

func (m model) Init() tea.Cmd {
	if m.player != nil && m.player.UpdateChan != nil {
		return m.listenForUpdates()
	}
	return nil
}

func (m model) listenForUpdates() tea.Cmd {
	ch := m.player.UpdateChan
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return update
	}
}

func (m model) cursor() chess.Square {
	return chess.NewSquare(7-m.cursorRow, m.cursorCol)
}

func (m model) awaitingMyPromotion() bool {
	return m.gameState == "playing" && m.snap.Promoting && m.snap.ToAct() == m.player.Color
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if m.awaitingMyPromotion() {
			switch key := strings.ToLower(msg.String()); key {
			case "q", "r", "b", "n":
				if err := m.gameSession.Promote(m.player.ID, key); err != nil {
					m.message = err.Error()
				} else {
					m.message = ""
				}
				m.refresh()
			}
			return m, nil
		}

		if msg.Type == tea.KeyEscape && m.gameState == "playing" && m.isMyTurn {
			m.deselect()
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}

		switch m.gameState {
		case "playing":
			if !m.isMyTurn {
				break
			}
			if m.moveCursor(msg.String()) {
				m.broadcastCursorUpdate()
				break
			}
			if msg.String() == "enter" || msg.String() == " " {
				m.choose()
			}
		case "waiting", "opponent_disconnected", "finished":
			// Navigation only, for exploring the board.
			m.moveCursor(msg.String())
		}

	case GameUpdate:
		return m.handleGameUpdate(msg)
	}
	return m, nil
}

func (m *model) moveCursor(key string) bool {
	switch key {
	case "up", "k":
		if m.cursorRow < 7 {
			m.cursorRow++
		}
	case "down", "j":
		if m.cursorRow > 0 {
			m.cursorRow--
		}
	case "left", "h":
		if m.cursorCol > 0 {
			m.cursorCol--
		}
	case "right", "l":
		if m.cursorCol < 7 {
			m.cursorCol++
		}
	default:
		return false
	}
	return true
}

// choose selects the piece under the cursor or moves the selected piece there.
func (m *model) choose() {
	current := m.cursor()

	if m.selected == nil {
		piece := m.snap.Board.At(current)
		if piece.Empty() || !piece.IsColor(m.player.Color) {
			return
		}
		m.selected = &current
		m.validMoves = m.gameSession.LegalMoves(m.player.ID, current)
		m.manager.BroadcastUpdate(m.player.ID, GameUpdate{
			Type: "select",
			Data: map[string]any{
				"position":   current,
				"validMoves": m.validMoves.Squares(),
			},
		})
		return
	}

	if *m.selected == current {
		m.deselect()
		return
	}

	if err := m.gameSession.Move(m.player.ID, *m.selected, current); err != nil {
		// Keep the selection so the player can pick another target.
		m.message = err.Error()
		return
	}
	m.message = ""
	m.selected = nil
	m.validMoves = chess.Mask{}
	m.refresh()
}

func (m *model) deselect() {
	m.selected = nil
	m.validMoves = chess.Mask{}
	if m.gameSession != nil {
		m.manager.BroadcastUpdate(m.player.ID, GameUpdate{Type: "deselect"})
	}
}

func (m *model) refresh() {
	if m.gameSession == nil {
		return
	}
	m.snap = m.gameSession.Snapshot()
	m.isMyTurn = m.gameSession.IsPlayerTurn(m.player.ID)
	if m.snap.Over && m.gameState == "playing" {
		m.gameState = "finished"
	}
}

func (m model) broadcastCursorUpdate() {
	if m.gameSession != nil {
		m.manager.BroadcastUpdate(m.player.ID, GameUpdate{
			Type: "cursor",
			Data: map[string]any{
				"row": m.cursorRow,
				"col": m.cursorCol,
			},
		})
	}
}

func (m model) handleGameUpdate(update GameUpdate) (tea.Model, tea.Cmd) {
	// Don't process updates from self
	if m.player != nil && update.FromPlayer == m.player.ID {
		return m, m.listenForUpdates()
	}

	switch update.Type {
	case "matched":
		m.gameSession = m.manager.GetGameSession(m.player.ID)
		if m.gameSession != nil {
			m.gameState = "playing"
			m.opponent = m.gameSession.GetOpponent(m.player.ID)
			m.refresh()
		}

	case "move", "promote", "cursor", "select", "deselect":
		// Any session traffic may follow a move whose own update was evicted.
		m.refresh()

	case "opponent_disconnected":
		m.gameState = "opponent_disconnected"
		m.isMyTurn = false
	}

	return m, m.listenForUpdates()
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(m.styles.title.Render("CheSSH"))
	s.WriteString("\n")

	switch m.gameState {
	case "waiting":
		s.WriteString("Waiting for an opponent to connect...\n\n")
		if m.player != nil {
			if position := m.manager.GetQueuePosition(m.player.ID); position > 0 {
				s.WriteString(fmt.Sprintf("Position in queue: %d\n", position))
			}
		}
		s.WriteString("You can explore the board while waiting:\n")
		s.WriteString("Use arrow keys to move cursor, Q to quit\n\n")
		s.WriteString(m.renderBoardWithInfo())
		return s.String()

	case "opponent_disconnected":
		s.WriteString(m.styles.alert.Render("*** OPPONENT DISCONNECTED; YOU WIN ***"))
		s.WriteString("\n\nYour opponent has left the game.\n")
		s.WriteString("You can continue exploring the board or press Q to quit.\n\n")
		s.WriteString(m.renderBoardWithInfo())
		return s.String()
	}

	if m.player != nil && m.opponent != nil {
		s.WriteString(fmt.Sprintf("You: %s (%s) vs %s (%s)\n",
			m.player.Name, m.player.Color, m.opponent.Name, m.opponent.Color))
	}

	switch {
	case m.gameState == "finished":
		s.WriteString("GAME OVER - Q to quit\n\n")
	case m.awaitingMyPromotion():
		s.WriteString("PROMOTE YOUR PAWN - press Q, R, B or N\n\n")
	case m.isMyTurn:
		s.WriteString("YOUR TURN - Use arrow keys to move cursor, ENTER/SPACE to select/move, ESC to deselect, Q to quit\n\n")
	default:
		s.WriteString("OPPONENT'S TURN - Please wait for your opponent to move\n\n")
	}

	if m.snap.Status != "" {
		s.WriteString(m.styles.alert.Render(fmt.Sprintf("*** %s ***", m.snap.Status)))
		s.WriteString("\n\n")
	}
	if m.message != "" {
		s.WriteString(m.message)
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderBoardWithInfo())
	return s.String()
}

func (m model) renderBoardWithInfo() string {
	board := strings.Join(m.getBoardLines(), "\n")
	info := m.styles.info.Render(strings.Join(m.getInfoLines(), "\n"))
	out := lipgloss.JoinHorizontal(lipgloss.Top, board, "   ", info)
	if history := m.snap.History; len(history) > 0 {
		last := history[len(history)-1]
		out += fmt.Sprintf("\nLast move: %s -> %s", last.From, last.To)
	}
	return out + "\n"
}

func (m model) getBoardLines() []string {
	const files = "  a  b  c  d  e  f  g  h  "
	lines := []string{files}

	for row := 7; row >= 0; row-- {
		var line strings.Builder
		line.WriteString(fmt.Sprintf("%d", row+1))

		for col := range 8 {
			sq := chess.NewSquare(7-row, col)
			piece := m.snap.Board.At(sq)

			cellChar := piece.String()
			if piece.Empty() {
				cellChar = " "
			}

			var style lipgloss.Style
			switch {
			case m.cursorRow == row && m.cursorCol == col:
				style = m.styles.cursor
			case m.selected != nil && *m.selected == sq:
				style = m.styles.selected
			case m.validMoves.Has(sq):
				style = m.styles.target
			case (row+col)%2 == 0:
				style = m.styles.dark
			default:
				style = m.styles.light
			}
			line.WriteString(style.Render(cellChar))
		}

		line.WriteString(fmt.Sprintf("%d", row+1))
		lines = append(lines, line.String())
	}

	return append(lines, files)
}

func (m model) getInfoLines() []string {
	lines := []string{
		"GAME INFO",
		"",
		fmt.Sprintf("Turn: %s", m.snap.Turn),
		"",
	}

	cursor := m.cursor()
	lines = append(lines, fmt.Sprintf("Cursor: %s", cursor))
	if piece := m.snap.Board.At(cursor); piece.Empty() {
		lines = append(lines, "Piece: Empty")
	} else {
		lines = append(lines, fmt.Sprintf("Piece: %s", piece.Name()))
	}

	if m.selected == nil {
		return lines
	}

	lines = append(lines, "", fmt.Sprintf("Selected: %s", m.snap.Board.At(*m.selected).Name()))
	lines = append(lines, fmt.Sprintf("At: %s", m.selected))

	targets := m.validMoves.Squares()
	if len(targets) == 0 {
		return lines
	}
	lines = append(lines, "", "Valid moves:")
	shown := min(len(targets), 6)
	for i := 0; i < shown; i += 2 {
		row := targets[i].String()
		if i+1 < shown {
			row += "  " + targets[i+1].String()
		}
		lines = append(lines, row)
	}
	if len(targets) > 6 {
		lines = append(lines, fmt.Sprintf("... and %d more", len(targets)-6))
	}
	return lines
}
