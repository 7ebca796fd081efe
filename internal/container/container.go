package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/dispatcher"
	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/application/service"
	"github.com/garyjia/classwallet-submitter/internal/config"
)

// Container owns the submitter's components. Start initializes them in
// dependency order and Close tears them down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	database  *DatabaseBundle
	messenger port.MessageSender

	// Application
	dispatcher dispatcher.Dispatcher
	history    *service.HistoryService
	submitter  *service.Submitter

	// sessions overrides the Chrome session factory (tests)
	sessions service.SessionFactory

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// Option customises a Container before Start.
type Option func(*Container)

// WithSessionFactory replaces the Chrome-backed session factory.
func WithSessionFactory(f service.SessionFactory) Option {
	return func(c *Container) { c.sessions = f }
}

// WithMessenger replaces the Lark sender.
func WithMessenger(m port.MessageSender) Option {
	return func(c *Container) { c.messenger = m }
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a container. It does not initialize components;
// call Start.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes components in dependency order:
// 1. Database and history
// 2. Lark messenger
// 3. Event dispatcher
// 4. Submitter
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = bundle
	c.history = ProvideHistoryService(bundle, &c.config.History, c.logger)
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	if c.messenger == nil {
		c.messenger = ProvideMessenger(&c.config.Lark, c.logger)
	}

	c.dispatcher = ProvideDispatcher(c.messenger, &c.config.Lark, c.logger)

	sessions := c.sessions
	if sessions == nil {
		sessions = ProvideSessionFactory(c.config, c.logger)
	}
	c.submitter = ProvideSubmitter(c.config, &SubmitterDeps{
		Sessions:   sessions,
		History:    c.history,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close shuts components down in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.database != nil {
		if err := c.database.DB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.database == nil {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	} else if err := c.database.DB.Ping(); err != nil {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
		status.Overall = false
	} else {
		status.Components["database"] = ComponentHealth{Healthy: true}
	}

	if c.messenger == nil {
		status.Components["lark"] = ComponentHealth{Healthy: true, Message: "disabled"}
	} else {
		status.Components["lark"] = ComponentHealth{Healthy: true}
	}

	return status
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// History returns the submission history service.
func (c *Container) History() *service.HistoryService {
	return c.history
}

// Submitter returns the submission entry point.
func (c *Container) Submitter() *service.Submitter {
	return c.submitter
}

// Messenger returns the Lark sender, nil when disabled.
func (c *Container) Messenger() port.MessageSender {
	return c.messenger
}
