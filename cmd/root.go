// Package cmd is the command line of the extension host.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"extensions.GO/config"
	"extensions.GO/core/event"
	"extensions.GO/core/loader"
	"extensions.GO/core/messenger"
	"extensions.GO/manager"
	extensionRepo "extensions.GO/model/repository/extension"
	"extensions.GO/service"
	"extensions.GO/service/installer"
)

var rootCmd = &cobra.Command{
	Use:           "extensions",
	Short:         "Runtime extension host: hooks, endpoints and app bundles",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute applies registered commands and runs the root command.
func Execute() {
	if err := Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// host is everything a command needs, built from the environment.
type host struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	redis   *redis.Client
	repo    *extensionRepo.ExtensionRepository
	manager *manager.Manager
}

// bootstrap loads config and wires the manager. A missing database or Redis only disables
// the features depending on them.
func bootstrap(ctx context.Context, mutate func(*config.Config)) (*host, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	log, err := config.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	h := &host{cfg: cfg, log: log}

	db, err := config.NewDB(cfg)
	if err != nil {
		log.Warn("database unavailable, database capabilities disabled", zap.Error(err))
	} else {
		h.db = db
		h.repo = extensionRepo.NewExtensionRepository(db)
		if err := h.repo.Migrate(); err != nil {
			log.Warn("couldn't migrate extension_installs", zap.Error(err))
		}
	}

	var msg messenger.Messenger = messenger.NewLocal()
	if h.redis = config.NewRedis(ctx, cfg); h.redis != nil {
		msg = messenger.NewRedis(h.redis, log)
		log.Info("reload signals shared over redis", zap.String("addr", cfg.RedisAddr))
	}

	var records installer.Recorder
	if h.repo != nil {
		records = h.repo
	}
	bus := event.NewEmitter(log)
	caps := service.NewCapabilities(h.db, bus, config.Env(), log.Named("extensions"))

	loader.LockNatives()
	h.manager = manager.New(cfg, manager.Deps{
		Bus:          bus,
		Installer:    installer.New(cfg.RegistryURL, cfg.ExtensionsPath, records, log),
		Messenger:    msg,
		Capabilities: &caps,
		Logger:       log,
	})
	return h, nil
}

func (h *host) close(ctx context.Context) {
	if err := h.manager.Shutdown(ctx); err != nil {
		h.log.Warn("manager shutdown", zap.Error(err))
	}
	if h.redis != nil {
		_ = h.redis.Close()
	}
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = h.log.Sync()
}
