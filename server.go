package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
)

// newSSHServer builds the wish server that puts every session into the
// matchmaking queue and runs a board model for it.
func newSSHServer(port int, hostKey ssh.Option, manager *GameManager, logger *log.Logger) (*ssh.Server, error) {
	return wish.NewServer(
		wish.WithAddress(fmt.Sprintf(":%d", port)),
		hostKey,
		wish.WithMiddleware(
			bubbletea.Middleware(teaHandler(manager)),
			logging.MiddlewareWithLogger(logger),
		),
	)
}

func teaHandler(manager *GameManager) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		player := &Player{
			ID:         fmt.Sprintf("player_%d", time.Now().UnixNano()),
			Session:    s,
			Name:       s.User(),
			Connected:  true,
			UpdateChan: make(chan GameUpdate, updateBuffer),
		}

		m := newModel(manager, player, bubbletea.MakeRenderer(s))

		manager.AddPlayer(player)

		go func() {
			<-s.Context().Done()
			manager.RemovePlayer(player.ID)
			close(player.UpdateChan)
		}()

		return m, []tea.ProgramOption{tea.WithAltScreen(), tea.WithInput(s), tea.WithOutput(s)}
	}
}
