package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/gorilla/websocket"
	sshproxy "github.com/imjasonh/ssh-proxy"

	"github.com/imjasonh/chesslogic/internal/chess"
	"github.com/imjasonh/chesslogic/internal/relay"
)

func main() {
	var (
		sshPort   = flag.Int("port", 2222, "SSH server port")
		local     = flag.Bool("local", false, "run in local mode (generates/uses local host key instead of Secret Manager)")
		relayAddr = flag.String("relay", "", "address for the line-protocol TCP relay, e.g. :7777 (disabled when empty)")
		startFEN  = flag.String("fen", chess.StartFEN, "starting position for new games")
		debug     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	manager, err := NewGameManager(*startFEN, logger.WithPrefix("ssh"))
	if err != nil {
		logger.Fatal("invalid -fen", "err", err)
	}
	hub, err := relay.NewHub(*startFEN, logger.WithPrefix("relay"))
	if err != nil {
		logger.Fatal("invalid -fen", "err", err)
	}

	var hostKey ssh.Option
	if *local {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Fatal("failed to get user home directory", "err", err)
		}
		hostKey, err = localHostKey(filepath.Join(homeDir, ".chessh", "host_key"), logger)
		if err != nil {
			logger.Fatal("failed to generate/load host key", "err", err)
		}
		logger.Info("running in local mode")
	} else {
		hostKey, err = secretHostKey(ctx, os.Getenv("SSH_HOST_KEY_SECRET"))
		if err != nil {
			logger.Fatal("failed to load host key", "err", err)
		}
		logger.Info("running in cloud mode with Secret Manager")
	}

	s, err := newSSHServer(*sshPort, hostKey, manager, logger)
	if err != nil {
		logger.Fatal("failed to create SSH server", "err", err)
	}
	go func() {
		logger.Info("starting SSH chess server", "port", *sshPort)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("SSH server failed", "err", err)
		}
	}()

	if *relayAddr != "" {
		go func() {
			if err := relay.NewTCPServer(hub).ListenAndServe(ctx, *relayAddr); err != nil {
				logger.Fatal("relay failed", "err", err)
			}
		}()
	}

	var httpServer *http.Server
	if httpPort := os.Getenv("PORT"); httpPort != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ssh", sshproxy.ProxyWebSocketToSSH(fmt.Sprintf(":%d", *sshPort), websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow connections from any origin for now
			},
		}))
		mux.Handle("/ws", relay.NewWebSocketHandler(hub))
		httpServer = &http.Server{Addr: ":" + httpPort, Handler: mux}
		go func() {
			logger.Info("starting HTTP server for /ssh and /ws", "port", httpPort)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("HTTP server failed", "err", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("stopping servers")

	tctx, tcancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer tcancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(tctx); err != nil {
			logger.Error("HTTP shutdown", "err", err)
		}
	}
	if err := s.Shutdown(tctx); err != nil {
		logger.Fatal("SSH shutdown", "err", err)
	}
}
