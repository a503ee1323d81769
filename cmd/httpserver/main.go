package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/yanshuy/lambda-http/internal/router"
	"github.com/yanshuy/lambda-http/internal/server"
	"github.com/yanshuy/lambda-http/internal/services"
	"github.com/yanshuy/lambda-http/internal/store"
)

func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory served for unmatched GET paths")
	flag.IntVar(&cfg.MaxConcurrent, "workers", cfg.MaxConcurrent, "connections handled at once (1 = sequential)")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "per-connection read timeout (0 = none)")
	flag.IntVar(&cfg.MaxBodyBytes, "max-body", cfg.MaxBodyBytes, "largest POST body accepted, in bytes")
	flag.Parse()

	routes := router.New()
	data := store.New()
	services.Register(routes, data)

	srv, err := server.Serve(cfg, routes, data)
	if err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
	defer srv.Close()

	printBanner(srv, cfg, routes)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Server gracefully stopped")
}

func printBanner(srv *server.Server, cfg server.Config, routes *router.Router) {
	title := color.New(color.FgGreen, color.Bold)
	label := color.New(color.FgCyan)

	title.Println("Server started on", srv.Addr())
	label.Print("static root: ")
	color.White("%s", cfg.StaticDir)
	label.Print("workers:     ")
	color.White("%d", cfg.MaxConcurrent)
	label.Println("routes:")
	for _, p := range routes.Paths() {
		color.Yellow("  GET  %s", p)
	}
	color.Yellow("  POST %s", cfg.UpdateNamePath)
}
