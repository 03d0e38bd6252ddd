// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"flag"
	"fmt"

	"nof0-arena/internal/config"
	"nof0-arena/internal/handler"
	"nof0-arena/internal/svc"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/rest"
)

func main() {
	// Auto-load environment variables from .env at startup.
	// It's fine if the file does not exist; envs can still be provided by the OS.
	_ = godotenv.Load()

	flag.Parse()

	// config registers and reads the -f flag itself.
	cfg := config.MustLoad()

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg, config.ConfigFile())
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
