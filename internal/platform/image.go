package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"

	"github.com/ostrisops/aikit/internal/logger"
)

// imageExists checks the local Docker image cache through the docker CLI.
func imageExists(ctx context.Context, imageName string) (bool, error) {
	if imageName == "" {
		return false, fmt.Errorf("image name cannot be empty")
	}

	cmd := exec.CommandContext(ctx, "docker", "images", "-q", imageName)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("operation cancelled")
		}
		return false, fmt.Errorf("failed to check Docker image: %w", err)
	}

	return len(strings.TrimSpace(string(output))) > 0, nil
}

// pullImage pulls an image through the docker CLI under a PTY so Docker's
// native progress bars render as they would interactively.
func pullImage(ctx context.Context, imageName string) error {
	logger.Info("Pulling Docker image: %s", imageName)

	cmd := exec.CommandContext(ctx, "docker", "pull", imageName)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start docker pull with pty: %w", err)
	}
	defer ptmx.Close()

	// EIO from the PTY when the child exits is normal.
	if _, err := io.Copy(os.Stdout, ptmx); err != nil && ctx.Err() == nil {
		logger.Debug("Pull output stream ended: %v", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("pull operation cancelled")
		}
		return fmt.Errorf("failed to pull image: %w", err)
	}

	logger.Info("Successfully pulled Docker image: %s", imageName)

	return nil
}

// EnsureImage makes sure the toolkit image is available locally, pulling it
// if needed.
func (p *Provisioner) EnsureImage(ctx context.Context, imageName string) error {
	if imageName == "" {
		return fmt.Errorf("image name cannot be empty")
	}

	exists, err := imageExists(ctx, imageName)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Docker image %s already exists locally", imageName)
		return nil
	}

	return pullImage(ctx, imageName)
}
