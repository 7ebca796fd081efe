// Package container wires the submitter's components from configuration.
package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/dispatcher"
	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/application/service"
	"github.com/garyjia/classwallet-submitter/internal/automation"
	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/config"
	"github.com/garyjia/classwallet-submitter/internal/document"
	infraLark "github.com/garyjia/classwallet-submitter/internal/infrastructure/external/lark"
	"github.com/garyjia/classwallet-submitter/internal/infrastructure/persistence/repository"
	"github.com/garyjia/classwallet-submitter/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/classwallet-submitter/internal/infrastructure/storage"
	"github.com/garyjia/classwallet-submitter/internal/portal"
	"github.com/garyjia/classwallet-submitter/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB        *database.DB
	TxManager *sqlite.TxManager
}

// ProvideDatabase opens the history database and applies pending migrations.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:        db,
		TxManager: sqlite.NewTxManager(db.DB, logger),
	}, nil
}

// ProvideHistoryService creates the history service over the database and
// the JSON log directory.
func ProvideHistoryService(bundle *DatabaseBundle, cfg *config.HistoryConfig, logger *zap.Logger) *service.HistoryService {
	repo := repository.NewSubmissionRepository(bundle.DB.DB, logger)

	var logs port.SubmissionLogStore
	if cfg.LogDir != "" {
		logs = storage.NewSubmissionLogStore(cfg.LogDir, logger)
	}

	return service.NewHistoryService(repo, logs, bundle.TxManager, logger)
}

// ProvideMessenger returns the Lark sender, or nil when notifications are off.
func ProvideMessenger(cfg *config.LarkConfig, logger *zap.Logger) port.MessageSender {
	if !cfg.Enabled {
		logger.Info("Lark notifications disabled")
		return nil
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		ReceiveIDType: cfg.ReceiveIDType,
		Timeout:       cfg.APITimeout,
	}, logger)
	return infraLark.NewMessenger(client, cfg.ReceiveIDType, logger)
}

// ProvideDispatcher creates the event dispatcher and subscribes the
// operator notification when a sender is configured.
func ProvideDispatcher(sender port.MessageSender, cfg *config.LarkConfig, logger *zap.Logger) dispatcher.Dispatcher {
	d := dispatcher.NewDispatcher(logger)
	if sender != nil {
		service.NewNotificationService(sender, cfg.ReceiveID, logger).Register(d)
	}
	return d
}

// ProvideTimings converts configured waits into step timings.
func ProvideTimings(cfg *config.Config) automation.Timings {
	return automation.Timings{
		Timeouts: browser.Timeouts{
			Probe:   cfg.Browser.ProbeTimeout,
			Default: cfg.Browser.DefaultTimeout,
			Field:   cfg.Browser.FieldTimeout,
		},
		PollInterval:         cfg.Browser.PollInterval,
		ConfirmationTimeout:  cfg.Automation.ConfirmationTimeout,
		ConfirmationInterval: cfg.Automation.ConfirmationInterval,
		MaxImageEditors:      cfg.Automation.MaxImageEditors,
		AfterLogin:           cfg.Automation.Delays.AfterLogin,
		AfterUpload:          cfg.Automation.Delays.AfterUpload,
		AfterModal:           cfg.Automation.Delays.AfterModal,
		BeforeCategory:       cfg.Automation.Delays.BeforeCategory,
		AfterSearch:          cfg.Automation.Delays.AfterSearch,
		AfterClick:           cfg.Automation.Delays.AfterClick,
	}
}

// ProvideSessionFactory returns a factory that binds a fresh Chrome driver
// to the ClassWallet step library. Each attempt gets its own browser.
func ProvideSessionFactory(cfg *config.Config, logger *zap.Logger) service.SessionFactory {
	adapter := portal.ClassWalletV1(portal.Settings{
		LoginURL:       cfg.Portal.LoginURL,
		PortalURL:      cfg.Portal.PortalURL,
		FundingSource:  cfg.Portal.FundingSource,
		StudentAliases: cfg.Portal.StudentAliases,
	})
	timings := ProvideTimings(cfg)
	opts := browser.Options{
		Headless:     cfg.Browser.Headless,
		ExecPath:     cfg.Browser.ExecPath,
		UserDataDir:  cfg.Browser.UserDataDir,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
	}

	return func() *service.Session {
		driver := browser.NewChromeDriver(opts, logger)
		return &service.Session{
			Driver: driver,
			Steps:  automation.NewSteps(driver, adapter, timings, logger),
		}
	}
}

// ProvideSubmitter creates the submission entry point.
func ProvideSubmitter(cfg *config.Config, deps *SubmitterDeps) *service.Submitter {
	subCfg := service.SubmissionConfig{
		CredentialsPath:          cfg.Credentials.Path,
		Identity:                 cfg.Credentials.Identity,
		Secret:                   cfg.Credentials.Secret,
		AutoSubmit:               cfg.Automation.AutoSubmit,
		AssumeSubmittedOnTimeout: cfg.Automation.AssumeSubmittedOnTimeout,
		VerifyDocuments:          cfg.Automation.VerifyDocuments,
		CreatedBy:                cfg.History.CreatedBy,
	}

	opts := []service.SubmitterOption{
		service.WithHistory(deps.History),
		service.WithEvents(deps.Dispatcher),
	}
	if cfg.Automation.VerifyDocuments {
		opts = append(opts, service.WithInspector(document.NewInspector(deps.Logger)))
	}

	return service.NewSubmitter(subCfg, cfg.Automation.KeepOpen, deps.Sessions, deps.Logger, opts...)
}

// SubmitterDeps are the collaborators ProvideSubmitter needs.
type SubmitterDeps struct {
	Sessions   service.SessionFactory
	History    port.HistoryRecorder
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}
