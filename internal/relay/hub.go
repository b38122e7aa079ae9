package relay

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/imjasonh/chesslogic/internal/chess"
)

// DefaultTable is where every client is seated on connect.
const DefaultTable = "main"

// outboxSize bounds how far a client may fall behind before responses are dropped.
const outboxSize = 64

// MaxTables bounds how many tables a hub keeps open, DefaultTable included.
const MaxTables = 256

var errTooManyTables = errors.New("too many tables open")

// Hub owns the tables. It is safe for concurrent use by any number of clients.
type Hub struct {
	startFEN  string
	log       *log.Logger
	maxTables int

	// mu is held while clients change tables, so a table is never closed
	// between being looked up and being sat at.
	mu     sync.Mutex
	tables map[string]*Table
}

// NewHub returns a hub whose tables start from startFEN.
func NewHub(startFEN string, logger *log.Logger) (*Hub, error) {
	if _, err := chess.ParseFEN(startFEN); err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	return &Hub{
		startFEN:  startFEN,
		log:       logger,
		maxTables: MaxTables,
		tables:    make(map[string]*Table),
	}, nil
}

func tableName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || len(name) > 32 {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return name, nil
}

// tableLocked returns the named table, creating it on first use. A full hub
// closes an empty table to make room, or refuses.
func (h *Hub) tableLocked(name string) (*Table, error) {
	if t, ok := h.tables[name]; ok {
		return t, nil
	}
	if len(h.tables) >= h.maxTables && !h.evictLocked() {
		return nil, fmt.Errorf("%w: limit is %d", errTooManyTables, h.maxTables)
	}
	game, err := chess.ParseFEN(h.startFEN)
	if err != nil {
		return nil, err
	}
	t := &Table{
		name:  name,
		log:   h.log.With("table", name),
		game:  game,
		seats: make(map[*Client]struct{}),
	}
	h.tables[name] = t
	h.log.Debug("opened table", "table", name)
	return t, nil
}

func (h *Hub) evictLocked() bool {
	for name, t := range h.tables {
		if seated, _ := t.occupancy(); name != DefaultTable && seated == 0 {
			h.closeLocked(t)
			return true
		}
	}
	return false
}

// releaseLocked closes t once nobody sits there and no move was ever made.
// Played tables stay so their game can be resumed until room is needed.
func (h *Hub) releaseLocked(t *Table) {
	if seated, played := t.occupancy(); t.name == DefaultTable || seated > 0 || played {
		return
	}
	h.closeLocked(t)
}

func (h *Hub) closeLocked(t *Table) {
	delete(h.tables, t.name)
	h.log.Debug("closed table", "table", t.name)
}

// seat moves c to the named table and reports whether it changed tables.
func (h *Hub) seat(c *Client, name string) (*Table, bool, error) {
	name, err := tableName(name)
	if err != nil {
		return nil, false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.tableLocked(name)
	if err != nil {
		return nil, false, err
	}
	if t == c.table {
		return t, false, nil
	}
	old := c.table
	if old != nil {
		old.leave(c)
	}
	t.sit(c)
	if old != nil {
		h.releaseLocked(old)
	}
	return t, true, nil
}

func (h *Hub) unseat(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.table.leave(c)
	h.releaseLocked(c.table)
}

// Connect seats a new client at DefaultTable and queues the current position
// for it. addr identifies the client in logs.
func (h *Hub) Connect(addr string) *Client {
	c := &Client{
		hub:  h,
		addr: addr,
		log:  h.log.With("client", addr),
		out:  make(chan Response, outboxSize),
	}
	if _, _, err := h.seat(c, DefaultTable); err != nil {
		// DefaultTable is never evicted, so it always exists or fits.
		panic(err)
	}
	c.log.Info("client connected")
	return c
}

// Table is one shared game and the clients watching it.
type Table struct {
	name string
	log  *log.Logger

	mu    sync.Mutex
	game  *chess.Game
	seats map[*Client]struct{}
}

// FEN returns the current position.
func (t *Table) FEN() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game.FEN()
}

func (t *Table) sit(c *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seats[c] = struct{}{}
	c.table = t
	c.send(t.positionLocked())
}

func (t *Table) leave(c *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seats, c)
}

func (t *Table) occupancy() (seated int, played bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seats), len(t.game.History()) > 0
}

func (t *Table) move(c *Client, from, to string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.game.Move(from, to); err != nil {
		t.log.Debug("rejected move", "client", c.addr, "from", from, "to", to, "err", err)
		c.send(errorResponse(err))
		return
	}
	t.log.Info("move", "client", c.addr, "from", from, "to", to)
	c.send(Response{Type: TypeOK, Table: t.name, Message: from + to})
	t.broadcastLocked()
}

func (t *Table) promote(c *Client, piece string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.game.Promote(piece); err != nil {
		t.log.Debug("rejected promotion", "client", c.addr, "piece", piece, "err", err)
		c.send(errorResponse(err))
		return
	}
	t.log.Info("promotion", "client", c.addr, "piece", piece)
	c.send(Response{Type: TypeOK, Table: t.name, Message: "promoted " + strings.ToLower(piece)})
	t.broadcastLocked()
}

func (t *Table) legalMoves(square string) Response {
	sq, err := chess.ParseSquare(square)
	if err != nil {
		return errorResponse(err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	targets := t.game.LegalMoves(sq).Squares()
	squares := make([]string, 0, len(targets))
	for _, to := range targets {
		squares = append(squares, to.String())
	}
	return Response{Type: TypeMoves, Table: t.name, Square: sq.String(), Squares: squares}
}

func (t *Table) status() Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.positionLocked()
	r.Type = TypeStatus
	r.FEN = ""
	r.Message = t.game.Status()
	return r
}

func (t *Table) position() Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionLocked()
}

func (t *Table) positionLocked() Response {
	return Response{
		Type:  TypePosition,
		Table: t.name,
		FEN:   t.game.FEN(),
		Turn:  strings.ToLower(t.game.Turn().String()),
		State: gameState(t.game),
	}
}

func (t *Table) broadcastLocked() {
	r := t.positionLocked()
	for c := range t.seats {
		c.send(r)
	}
}

func gameState(g *chess.Game) string {
	_, promoting := g.PendingPromotion()
	switch {
	case g.Checkmate():
		return "checkmate"
	case g.Draw():
		return "draw"
	case promoting:
		return "promotion"
	case g.InCheck():
		return "check"
	}
	return "playing"
}

// Client is one connection's view of the hub. Handle must be called from a
// single goroutine; responses are read from Out.
type Client struct {
	hub   *Hub
	addr  string
	log   *log.Logger
	table *Table
	out   chan Response
	once  sync.Once
}

// Out delivers replies and table broadcasts. It is closed by Close.
func (c *Client) Out() <-chan Response { return c.out }

// Handle executes req and reports whether the connection should stay open.
func (c *Client) Handle(req Request) bool {
	switch req.Type {
	case TypeQuit:
		c.send(Response{Type: TypeOK, Message: "bye"})
		return false
	case TypeJoin:
		t, moved, err := c.hub.seat(c, req.Table)
		if err != nil {
			c.send(errorResponse(err))
			return true
		}
		if !moved {
			c.send(t.position())
			return true
		}
		c.log.Info("joined table", "table", t.name)
	case TypeBoard:
		c.send(c.table.position())
	case TypeStatus:
		c.send(c.table.status())
	case TypeMoves:
		c.send(c.table.legalMoves(req.Square))
	case TypeMove:
		c.table.move(c, req.From, req.To)
	case TypePromote:
		c.table.promote(c, req.Piece)
	default:
		c.send(errorResponse(fmt.Errorf("unknown command %q", req.Type)))
	}
	return true
}

// Fail reports a request that never reached the hub, such as a parse error.
func (c *Client) Fail(err error) {
	if errors.Is(err, errEmptyCommand) {
		return
	}
	c.send(errorResponse(err))
}

// Close leaves the table and closes Out. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.hub.unseat(c)
		close(c.out)
		c.log.Info("client disconnected")
	})
}

func (c *Client) send(r Response) {
	select {
	case c.out <- r:
	default:
		c.log.Warn("client is not reading, dropping response", "type", r.Type)
	}
}
