package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/beacon-agent/beacon/engine/agentfile"
	"github.com/beacon-agent/beacon/engine/core"
	"github.com/beacon-agent/beacon/pkg/logger"
	"github.com/beacon-agent/beacon/server"
)

func main() {
	host := flag.String("host", "127.0.0.1", "address to bind")
	port := flag.Int("port", 5580, "port to listen on")
	agentPath := flag.String("agent", "", "explicit path to an agent file")
	agentName := flag.String("agent-name", "", "registered agent name")
	execCtx := flag.String("exec-context", string(agentfile.SourceCheckout),
		"execution context: source-checkout, installed-project, global-install")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := logger.InfoLevel
	if *debug {
		level = logger.DebugLevel
	}
	logger.Init(&logger.Config{Level: level})

	if err := run(*host, *port, *execCtx, *agentPath, *agentName); err != nil {
		logger.Default().Error("beacon failed", "error", err)
		os.Exit(1)
	}
}

func run(host string, port int, execCtx, agentPath, agentName string) error {
	log := logger.Default()

	resolver := agentfile.NewResolver(nil)
	path, err := resolver.Resolve(agentfile.ExecContext(execCtx), agentPath, agentName)
	if err != nil {
		return err
	}
	log.Info("loading agent", "path", path)

	result, err := agentfile.Load(path)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("invalid agent file %q: %s",
			path, strings.Join(core.Messages(result.Errors), "; "))
	}
	def := result.Definition
	for _, w := range result.Warnings {
		log.Warn(w.Message, "field", w.Field)
	}

	srv, err := server.New(server.Config{Host: host, Port: port}, def.LLM)
	if err != nil {
		return err
	}
	for i := range def.Webhooks {
		if _, err := srv.Webhooks().Add(&def.Webhooks[i]); err != nil {
			return fmt.Errorf("failed to register webhook %q: %w", def.Webhooks[i].URL, err)
		}
	}
	log.Info("agent ready", "name", def.Name, "webhooks", len(def.Webhooks))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
