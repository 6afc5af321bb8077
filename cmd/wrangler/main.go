// wrangler is the client-machine agent: it maintains a heartbeat control
// channel to a remote orchestration server and executes shell sessions on
// the server's behalf.
//
// Usage:
//
//	wrangler
//
// Configuration is read from the environment (CLI_TOKEN, SERVER_URL,
// WRANGLER_CONFIG, WRANGLER_INSPECTOR_ADDR, WRANGLER_LOG_LEVEL), optionally
// overlaid by a YAML file. See internal/config for the full list.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ianremillard/wrangler/internal/agentlog"
	"github.com/ianremillard/wrangler/internal/config"
	"github.com/ianremillard/wrangler/internal/executor"
	"github.com/ianremillard/wrangler/internal/heartbeat"
	"github.com/ianremillard/wrangler/internal/inspector"
	"github.com/ianremillard/wrangler/internal/ledger"
	"github.com/ianremillard/wrangler/internal/registry"
	"github.com/ianremillard/wrangler/internal/scheduler"
	"github.com/ianremillard/wrangler/internal/telemetry"
)

const shutdownGrace = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("wrangler: config: %v", err)
	}
	agentlog.SetLevel(cfg.LogLevel)

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("wrangler: cwd: %v", err)
	}

	l := ledger.New()
	sched := (*scheduler.Scheduler)(nil)
	reg := registry.New(l, cwd, registry.DefaultSpawner, func() {
		if sched != nil {
			sched.Nudge()
		}
	})
	exec := executor.New(reg)
	tel := telemetry.New(cwd)
	engine := heartbeat.New(cfg, reg, l, exec, tel)

	sched = scheduler.New(
		cfg.Scheduler.BusyInterval,
		cfg.Scheduler.IdleInterval,
		cfg.Scheduler.BackoffInterval,
		cfg.Scheduler.CommandResponseDelay,
		func() bool { return reg.Len() > 0 },
		func() bool { return engine.SendOnce(context.Background()) },
	)

	sink := &inspector.StatusSink{Registry: reg, Ledger: l, Heartbeat: engine}
	insp := inspector.New(cfg.InspectorAddr, sink, reg.KillAll)

	go func() {
		if err := insp.ListenAndServe(); err != nil {
			log.Printf("wrangler: inspector: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sched.Start()
	sig := <-sigCh
	log.Printf("wrangler: received %v, shutting down", sig)

	sched.Stop()
	insp.RunShutdownHook()
	if err := insp.Close(shutdownGrace); err != nil {
		log.Printf("wrangler: inspector shutdown: %v", err)
	}
	os.Exit(0)
}
