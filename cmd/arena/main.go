package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/rest"

	"nof0-arena/internal/cli"
	"nof0-arena/internal/config"
	"nof0-arena/internal/handler"
	"nof0-arena/internal/persistence/ledgermirror"
	"nof0-arena/internal/svc"
)

func main() {
	// Auto-load environment variables from .env at startup.
	// It's fine if the file does not exist; envs can still be provided by the OS.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	svcCtx := svc.NewServiceContext(*cfg, config.ConfigFile())
	handler.RegisterHandlers(server, svcCtx)

	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	defer stopMirror()
	if svcCtx.DBConn != nil {
		mirror := ledgermirror.New(svcCtx.DBConn, svcCtx.Ledger, svcCtx.StreamBus)
		go mirror.Run(mirrorCtx)
	}

	fmt.Printf("Starting arena server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
