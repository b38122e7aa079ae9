package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"

	"github.com/imjasonh/chesslogic/internal/chess"
)

var errNotInGame = errors.New("player is not seated in this game")

// updateBuffer is the capacity of each player's UpdateChan.
const updateBuffer = 10

// Player represents a connected player
type Player struct {
	ID         string
	Session    ssh.Session
	Color      chess.Color
	Name       string
	GameID     string
	Connected  bool
	UpdateChan chan GameUpdate // Channel for sending updates to the player's model
}

// GameUpdate represents an update to broadcast to players
type GameUpdate struct {
	Type       string // "matched", "move", "promote", "cursor", "select", "deselect", "opponent_disconnected"
	Data       any
	FromPlayer string // Which player sent the update
}

// Snapshot is a copy of a game's state, safe to render without holding locks.
type Snapshot struct {
	Board     chess.Board
	Turn      chess.Color
	Status    string
	History   []chess.Move
	Promotion chess.Square
	Promoting bool
	Over      bool
}

func snapshotOf(g *chess.Game) Snapshot {
	sq, promoting := g.PendingPromotion()
	return Snapshot{
		Board:     g.Board(),
		Turn:      g.Turn(),
		Status:    g.Status(),
		History:   g.History(),
		Promotion: sq,
		Promoting: promoting,
		Over:      g.Over(),
	}
}

// ToAct is the color expected to act next: the mover while their promotion is
// pending, otherwise the side to move.
func (s Snapshot) ToAct() chess.Color {
	if s.Promoting {
		return s.Turn.Opponent()
	}
	return s.Turn
}

// GameSession manages a single game between two players. All engine calls go
// through mu so both players' models see one consistent game.
type GameSession struct {
	ID      string
	White   *Player
	Black   *Player
	Updates chan GameUpdate
	game    *chess.Game
	log     *log.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
}

func NewGameSession(id string, white, black *Player, fen string, logger *log.Logger) (*GameSession, error) {
	game, err := chess.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())

	session := &GameSession{
		ID:      id,
		White:   white,
		Black:   black,
		Updates: make(chan GameUpdate, 10),
		game:    game,
		log:     logger.With("game", id),
		ctx:     ctx,
		cancel:  cancel,
	}

	white.Color = chess.White
	white.GameID = id
	black.Color = chess.Black
	black.GameID = id

	go session.handleUpdates()

	return session, nil
}

func (gs *GameSession) handleUpdates() {
	for {
		select {
		case <-gs.ctx.Done():
			return
		case update := <-gs.Updates:
			gs.broadcastUpdate(update)
		}
	}
}

func (gs *GameSession) broadcastUpdate(update GameUpdate) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	for _, p := range []*Player{gs.White, gs.Black} {
		if p == nil || !p.Connected || p.UpdateChan == nil {
			continue
		}
		deliver(p.UpdateChan, update)
	}
}

// critical reports whether an update changes what the player may do. Cursor
// and selection hints are not critical.
func critical(update GameUpdate) bool {
	switch update.Type {
	case "matched", "move", "promote", "opponent_disconnected":
		return true
	}
	return false
}

// deliver never blocks. A hint is dropped when ch is full; a critical update
// instead evicts the oldest queued update. Models re-read the session on every
// update, so the evicted one carries nothing the newer one lacks.
func deliver(ch chan GameUpdate, update GameUpdate) {
	for {
		select {
		case ch <- update:
			return
		default:
		}
		if !critical(update) {
			return
		}
		select {
		case <-ch:
		default:
		}
	}
}

// publish queues an update for both players unless the session has ended.
// Only hints give up when the queue stays full.
func (gs *GameSession) publish(update GameUpdate) {
	if critical(update) {
		select {
		case <-gs.ctx.Done():
		case gs.Updates <- update:
		}
		return
	}
	select {
	case <-gs.ctx.Done():
	case gs.Updates <- update:
	case <-time.After(100 * time.Millisecond):
		gs.log.Debug("dropping hint", "type", update.Type)
	}
}

func (gs *GameSession) GetPlayer(playerID string) *Player {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.playerLocked(playerID)
}

func (gs *GameSession) playerLocked(playerID string) *Player {
	if gs.White != nil && gs.White.ID == playerID {
		return gs.White
	}
	if gs.Black != nil && gs.Black.ID == playerID {
		return gs.Black
	}
	return nil
}

func (gs *GameSession) GetOpponent(playerID string) *Player {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if gs.White != nil && gs.White.ID == playerID {
		return gs.Black
	}
	if gs.Black != nil && gs.Black.ID == playerID {
		return gs.White
	}
	return nil
}

func (gs *GameSession) Snapshot() Snapshot {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return snapshotOf(gs.game)
}

func (gs *GameSession) FEN() string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.game.FEN()
}

func (gs *GameSession) IsPlayerTurn(playerID string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	player := gs.playerLocked(playerID)
	if player == nil || gs.game.Over() {
		return false
	}
	return snapshotOf(gs.game).ToAct() == player.Color
}

// LegalMoves lists where the piece on sq may go, empty unless it is the
// player's own piece and their turn.
func (gs *GameSession) LegalMoves(playerID string, sq chess.Square) chess.Mask {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	player := gs.playerLocked(playerID)
	if player == nil || gs.game.Turn() != player.Color {
		return chess.Mask{}
	}
	return gs.game.LegalMoves(sq)
}

// Move plays from→to for the player and tells both sides about it.
func (gs *GameSession) Move(playerID string, from, to chess.Square) error {
	gs.mu.Lock()
	player := gs.playerLocked(playerID)
	if player == nil {
		gs.mu.Unlock()
		return errNotInGame
	}
	if gs.game.Turn() != player.Color {
		gs.mu.Unlock()
		return fmt.Errorf("%w: it is %s's turn", chess.ErrInvalidMove, gs.game.Turn())
	}
	err := gs.game.MoveSquares(from, to)
	gs.mu.Unlock()

	if err != nil {
		gs.log.Debug("rejected move", "player", player.Name, "from", from, "to", to, "err", err)
		return err
	}
	gs.log.Info("move", "player", player.Name, "from", from, "to", to)
	gs.publish(GameUpdate{
		Type:       "move",
		FromPlayer: playerID,
		Data:       chess.Move{From: from, To: to},
	})
	return nil
}

// Promote resolves the player's pending promotion.
func (gs *GameSession) Promote(playerID, selector string) error {
	gs.mu.Lock()
	player := gs.playerLocked(playerID)
	if player == nil {
		gs.mu.Unlock()
		return errNotInGame
	}
	if _, pending := gs.game.PendingPromotion(); pending && gs.game.Turn().Opponent() != player.Color {
		gs.mu.Unlock()
		return fmt.Errorf("%w: not your pawn", chess.ErrInvalidPromotion)
	}
	err := gs.game.Promote(selector)
	gs.mu.Unlock()

	if err != nil {
		return err
	}
	gs.log.Info("promotion", "player", player.Name, "piece", selector)
	gs.publish(GameUpdate{Type: "promote", FromPlayer: playerID, Data: selector})
	return nil
}

func (gs *GameSession) Disconnect(playerID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	var disconnectedPlayer, remainingPlayer *Player

	if gs.White != nil && gs.White.ID == playerID {
		gs.White.Connected = false
		disconnectedPlayer = gs.White
		remainingPlayer = gs.Black
	}
	if gs.Black != nil && gs.Black.ID == playerID {
		gs.Black.Connected = false
		disconnectedPlayer = gs.Black
		remainingPlayer = gs.White
	}
	if disconnectedPlayer == nil {
		return
	}
	gs.log.Info("player disconnected", "player", disconnectedPlayer.Name)

	// Notify remaining player of opponent disconnect
	if remainingPlayer != nil && remainingPlayer.Connected && remainingPlayer.UpdateChan != nil {
		disconnectUpdate := GameUpdate{
			Type: "opponent_disconnected",
			Data: map[string]any{
				"disconnectedPlayer": disconnectedPlayer.Name,
			},
		}
		deliver(remainingPlayer.UpdateChan, disconnectUpdate)
	}

	if gs.abandonedLocked() {
		gs.cancel()
	}
}

func (gs *GameSession) abandonedLocked() bool {
	return (gs.White == nil || !gs.White.Connected) && (gs.Black == nil || !gs.Black.Connected)
}

// GameManager handles matchmaking and game coordination
type GameManager struct {
	startFEN     string
	log          *log.Logger
	playerQueue  []*Player
	activeGames  map[string]*GameSession
	playerToGame map[string]string // playerID -> gameID
	mu           sync.RWMutex
	gameCounter  int
}

// NewGameManager returns a manager whose games start from startFEN.
func NewGameManager(startFEN string, logger *log.Logger) (*GameManager, error) {
	if _, err := chess.ParseFEN(startFEN); err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	return &GameManager{
		startFEN:     startFEN,
		log:          logger,
		playerQueue:  make([]*Player, 0),
		activeGames:  make(map[string]*GameSession),
		playerToGame: make(map[string]string),
	}, nil
}

func (gm *GameManager) AddPlayer(player *Player) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.playerQueue = append(gm.playerQueue, player)
	gm.log.Info("player queued", "player", player.Name, "queue", len(gm.playerQueue))

	if len(gm.playerQueue) < 2 {
		return
	}
	white := gm.playerQueue[0]
	black := gm.playerQueue[1]
	gm.playerQueue = gm.playerQueue[2:]

	gm.gameCounter++
	gameID := fmt.Sprintf("game_%d", gm.gameCounter)

	// startFEN was validated by NewGameManager.
	session, err := NewGameSession(gameID, white, black, gm.startFEN, gm.log)
	if err != nil {
		gm.log.Error("failed to start game", "err", err)
		return
	}
	gm.activeGames[gameID] = session
	gm.playerToGame[white.ID] = gameID
	gm.playerToGame[black.ID] = gameID
	gm.log.Info("game started", "game", gameID, "white", white.Name, "black", black.Name)

	matchUpdate := GameUpdate{
		Type: "matched",
		Data: map[string]any{
			"gameID": gameID,
			"opponent": map[string]string{
				"white_opponent": black.Name,
				"black_opponent": white.Name,
			},
		},
	}
	for _, p := range []*Player{white, black} {
		if p.UpdateChan != nil {
			deliver(p.UpdateChan, matchUpdate)
		}
	}
}

func (gm *GameManager) RemovePlayer(playerID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for i, player := range gm.playerQueue {
		if player.ID == playerID {
			gm.playerQueue = append(gm.playerQueue[:i], gm.playerQueue[i+1:]...)
			break
		}
	}

	gameID, exists := gm.playerToGame[playerID]
	if !exists {
		return
	}
	delete(gm.playerToGame, playerID)

	session, ok := gm.activeGames[gameID]
	if !ok {
		return
	}
	session.Disconnect(playerID)

	session.mu.RLock()
	abandoned := session.abandonedLocked()
	session.mu.RUnlock()
	if abandoned {
		delete(gm.activeGames, gameID)
		delete(gm.playerToGame, session.White.ID)
		delete(gm.playerToGame, session.Black.ID)
		gm.log.Info("game closed", "game", gameID)
	}
}

func (gm *GameManager) GetGameSession(playerID string) *GameSession {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	if gameID, exists := gm.playerToGame[playerID]; exists {
		return gm.activeGames[gameID]
	}
	return nil
}

// BroadcastUpdate relays cursor and selection hints to the player's game.
func (gm *GameManager) BroadcastUpdate(playerID string, update GameUpdate) {
	session := gm.GetGameSession(playerID)
	if session != nil {
		update.FromPlayer = playerID
		session.publish(update)
	}
}

func (gm *GameManager) GetQueuePosition(playerID string) int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	for i, player := range gm.playerQueue {
		if player.ID == playerID {
			return i + 1
		}
	}
	return -1
}

// Preview is the starting position shown to players still in the queue.
func (gm *GameManager) Preview() Snapshot {
	g, err := chess.ParseFEN(gm.startFEN)
	if err != nil {
		return snapshotOf(chess.NewGame())
	}
	return snapshotOf(g)
}
