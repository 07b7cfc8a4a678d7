package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/capdocs/capdocs/internal/app"
	"github.com/capdocs/capdocs/internal/config"
)

// RunCreateBuilder registers a builder principal under the given DID. The
// identifier is normalized before storage, so canonical and legacy encodings
// register the same principal.
func RunCreateBuilder(ctx context.Context, rawDID string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	principals, err := container.PrincipalUseCase()
	if err != nil {
		return fmt.Errorf("failed to get principal use case: %w", err)
	}

	builder, err := principals.CreateBuilder(ctx, rawDID)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	fmt.Fprintf(out, "builder created: %s\n", builder.DID)
	return nil
}

// RunCreateUser registers a user principal under the given DID.
func RunCreateUser(ctx context.Context, rawDID string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	principals, err := container.PrincipalUseCase()
	if err != nil {
		return fmt.Errorf("failed to get principal use case: %w", err)
	}

	user, err := principals.CreateUser(ctx, rawDID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(out, "user created: %s\n", user.DID)
	return nil
}
