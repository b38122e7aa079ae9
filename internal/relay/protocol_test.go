package relay

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Request
	}{
		{"move e2 e4", Request{Type: TypeMove, From: "e2", To: "e4"}},
		{"  MOVE   e2   e4  ", Request{Type: TypeMove, From: "e2", To: "e4"}},
		{"move e2e4", Request{Type: TypeMove, From: "e2", To: "e4"}},
		{"promote n", Request{Type: TypePromote, Piece: "n"}},
		{"moves b1", Request{Type: TypeMoves, Square: "b1"}},
		{"join lobby", Request{Type: TypeJoin, Table: "lobby"}},
		{"board", Request{Type: TypeBoard}},
		{"status", Request{Type: TypeStatus}},
		{"quit", Request{Type: TypeQuit}},
	}
	for _, tt := range tests {
		got, err := ParseLine(tt.line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"castle",
		"move e2",
		"move e2 e4 e5",
		"promote",
		"moves",
		"board now",
	} {
		if req, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) = %+v, want error", line, req)
		}
	}
}

func TestResponseLine(t *testing.T) {
	tests := []struct {
		r    Response
		want string
	}{
		{Response{Type: TypePosition, FEN: afterE4, Turn: "black"}, "position " + afterE4},
		{Response{Type: TypeMoves, Square: "e2", Squares: []string{"e4", "e3"}}, "moves e2 e4 e3"},
		{Response{Type: TypeMoves, Square: "e7"}, "moves e7"},
		{Response{Type: TypeStatus, Turn: "white", State: "check", Message: "White is in check!"}, "status white check White is in check!"},
		{Response{Type: TypeStatus, Turn: "black", State: "playing"}, "status black playing"},
		{Response{Type: TypeError, Error: "invalid move"}, "error invalid move"},
		{Response{Type: TypeOK}, "ok"},
		{Response{Type: TypeOK, Message: "e2e4"}, "ok e2e4"},
	}
	for _, tt := range tests {
		if got := tt.r.Line(); got != tt.want {
			t.Errorf("Line() = %q, want %q", got, tt.want)
		}
	}
}
