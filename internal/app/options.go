package app

import (
	"os"
	"time"

	"github.com/localmart-next/internal/config"
	"github.com/localmart-next/internal/logger"

	"go.uber.org/zap"
)

const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if !validMode(opts.Mode) {
		opts.Mode = ModeAll
	}
	return opts
}

func validMode(mode string) bool {
	return mode == ModeAll || mode == ModeAPI || mode == ModeWorker
}
