// Package relay shares chess tables between remote clients. A Hub owns the
// tables; the TCP and WebSocket servers translate their wire formats into
// Requests and deliver Responses back.
package relay

import (
	"errors"
	"fmt"
	"strings"
)

// Request types understood by the hub.
const (
	TypeMove    = "move"
	TypePromote = "promote"
	TypeBoard   = "board"
	TypeMoves   = "moves"
	TypeStatus  = "status"
	TypeJoin    = "join"
	TypeQuit    = "quit"
)

// Response types sent by the hub.
const (
	TypePosition = "position"
	TypeOK       = "ok"
	TypeError    = "error"
)

var errEmptyCommand = errors.New("empty command")

// Request is a single client command. The WebSocket relay decodes it from
// JSON; the TCP relay parses it from a line with ParseLine.
type Request struct {
	Type   string `json:"type"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Piece  string `json:"piece,omitempty"`
	Square string `json:"square,omitempty"`
	Table  string `json:"table,omitempty"`
}

// Response is what the hub sends back to a client, either as a direct reply
// or as a broadcast to everyone seated at a table.
type Response struct {
	Type    string   `json:"type"`
	Table   string   `json:"table,omitempty"`
	FEN     string   `json:"fen,omitempty"`
	Square  string   `json:"square,omitempty"`
	Squares []string `json:"squares,omitempty"`
	Turn    string   `json:"turn,omitempty"`
	State   string   `json:"state,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ParseLine reads one line of the text protocol, e.g. "move e2 e4".
func ParseLine(line string) (Request, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Request{}, errEmptyCommand
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	want := func(n int, usage string) error {
		if len(args) != n {
			return fmt.Errorf("usage: %s", usage)
		}
		return nil
	}

	switch cmd {
	case TypeMove:
		// Also accept the compact "move e2e4".
		if len(args) == 1 && len(args[0]) == 4 {
			return Request{Type: cmd, From: args[0][:2], To: args[0][2:]}, nil
		}
		if err := want(2, "move <from> <to>"); err != nil {
			return Request{}, err
		}
		return Request{Type: cmd, From: args[0], To: args[1]}, nil
	case TypePromote:
		if err := want(1, "promote <q|r|b|n>"); err != nil {
			return Request{}, err
		}
		return Request{Type: cmd, Piece: args[0]}, nil
	case TypeMoves:
		if err := want(1, "moves <square>"); err != nil {
			return Request{}, err
		}
		return Request{Type: cmd, Square: args[0]}, nil
	case TypeJoin:
		if err := want(1, "join <table>"); err != nil {
			return Request{}, err
		}
		return Request{Type: cmd, Table: args[0]}, nil
	case TypeBoard, TypeStatus, TypeQuit:
		if err := want(0, cmd); err != nil {
			return Request{}, err
		}
		return Request{Type: cmd}, nil
	}
	return Request{}, fmt.Errorf("unknown command %q", cmd)
}

// Line renders r for the text protocol.
func (r Response) Line() string {
	switch r.Type {
	case TypePosition:
		return "position " + r.FEN
	case TypeMoves:
		return strings.TrimSpace("moves " + r.Square + " " + strings.Join(r.Squares, " "))
	case TypeStatus:
		s := "status " + r.Turn + " " + r.State
		if r.Message != "" {
			s += " " + r.Message
		}
		return s
	case TypeError:
		return "error " + r.Error
	case TypeOK:
		if r.Message == "" {
			return "ok"
		}
		return "ok " + r.Message
	}
	return r.Type
}

func errorResponse(err error) Response {
	return Response{Type: TypeError, Error: err.Error()}
}
