// Package container provides dependency injection for the application.
package container

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/microsoft/wassette/internal/application/services"
	"github.com/microsoft/wassette/internal/infrastructure/config"
	"github.com/microsoft/wassette/internal/infrastructure/loader"
	"github.com/microsoft/wassette/internal/infrastructure/policystore"
	"github.com/microsoft/wassette/internal/infrastructure/redaction"
	"github.com/microsoft/wassette/internal/infrastructure/secretstore"
	"github.com/microsoft/wassette/internal/lifecycle"
)

// Container holds all application dependencies, wired once at process
// startup and shared by every CLI command / MCP server loop.
type Container struct {
	manager        *lifecycle.Manager
	managerService *services.ManagerService
	cfg            *config.Config
	logger         *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
}

// New creates a new dependency injection container: it loads host
// config, builds the Redactor, Loader, PolicyStore, and SecretStore,
// and wires them into a Lifecycle Manager plus its ManagerService
// facade.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg, err := config.Load(opts.SystemConfigPath)
	if err != nil {
		opts.Logger.Debug("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	redactor, err := redaction.New(redaction.Config{})
	if err != nil {
		return nil, fmt.Errorf("container: build redactor: %w", err)
	}

	stateDir, err := stateDirectory()
	if err != nil {
		return nil, fmt.Errorf("container: resolve state directory: %w", err)
	}

	ld, err := loader.New(loader.Config{CacheDir: cfg.CacheDir})
	if err != nil {
		return nil, fmt.Errorf("container: build loader: %w", err)
	}

	mgr := lifecycle.New(lifecycle.Config{
		Loader:      ld,
		PolicyStore: policystore.New(filepath.Join(stateDir, "policies")),
		SecretStore: secretstore.New(filepath.Join(stateDir, "secrets")),
		EventsDepth: cfg.EventChannelDepth,
		UnloadGrace: cfg.UnloadGrace,
		Redactor:    redactor,
		Logger:      opts.Logger,
	})

	return &Container{
		manager:        mgr,
		managerService: services.NewManagerService(mgr, opts.Logger),
		cfg:            cfg,
		logger:         opts.Logger,
	}, nil
}

// ManagerService returns the application-layer facade over the
// Lifecycle Manager used by every CLI command.
func (c *Container) ManagerService() *services.ManagerService {
	return c.managerService
}

// Manager returns the Lifecycle Manager directly, for commands (like a
// server loop) that need its event subscription or dispatch surface
// beyond what ManagerService exposes.
func (c *Container) Manager() *lifecycle.Manager {
	return c.manager
}

// Config returns the loaded host configuration.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

func stateDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wassette"), nil
}
