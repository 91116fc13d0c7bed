package main

import (
	"context"
	"devfolio/portfolio-api/app"
	"devfolio/portfolio-api/config"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	fs := pflag.NewFlagSet("portfolio-api", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.MakeLogger(cfg); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, err := app.NewRouter(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to set up server", zap.Error(err))
	}

	zap.L().Info("Server starting", zap.Int("port", cfg.Host.Port), zap.String("env", cfg.App.Env))

	err = router.Run(fmt.Sprintf(":%d", cfg.Host.Port))
	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
