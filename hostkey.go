package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/charmbracelet/keygen"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// localHostKey generates an ed25519 host key at keyPath on first use and
// reuses it afterwards.
func localHostKey(keyPath string, logger *log.Logger) (ssh.Option, error) {
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if _, err := os.Stat(keyPath); errors.Is(err, os.ErrNotExist) {
		if _, err := keygen.New(keyPath, keygen.WithKeyType(keygen.Ed25519), keygen.WithWrite()); err != nil {
			return nil, fmt.Errorf("failed to generate host key: %w", err)
		}
		logger.Info("generated new SSH host key", "path", keyPath)
	}
	return wish.WithHostKeyPath(keyPath), nil
}

// secretHostKey reads the PEM host key from the named Secret Manager version.
func secretHostKey(ctx context.Context, name string) (ssh.Option, error) {
	if name == "" {
		return nil, errors.New("SSH_HOST_KEY_SECRET is not set")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret version: %w", err)
	}
	return wish.WithHostKeyPEM(resp.Payload.Data), nil
}
