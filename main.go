package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"understudy/agent"
	"understudy/config"
	"understudy/engine"
	"understudy/ipc"
	"understudy/journal"
	"understudy/predict"
	"understudy/rules"
)

const banner = `
██╗   ██╗███╗   ██╗██████╗ ███████╗██████╗ ███████╗████████╗██╗   ██╗██████╗ ██╗   ██╗
██║   ██║████╗  ██║██╔══██╗██╔════╝██╔══██╗██╔════╝╚══██╔══╝██║   ██║██╔══██╗╚██╗ ██╔╝
██║   ██║██╔██╗ ██║██║  ██║█████╗  ██████╔╝███████╗   ██║   ██║   ██║██║  ██║ ╚████╔╝
██║   ██║██║╚██╗██║██║  ██║██╔══╝  ██╔══██╗╚════██║   ██║   ██║   ██║██║  ██║  ╚██╔╝
╚██████╔╝██║ ╚████║██████╔╝███████╗██║  ██║███████║   ██║   ╚██████╔╝██████╔╝   ██║
 ╚═════╝ ╚═╝  ╚═══╝╚═════╝ ╚══════╝╚═╝  ╚═╝╚══════╝   ╚═╝    ╚═════╝ ╚═════╝    ╚═╝

Watches. Learns. Plays in your stead.`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	cfg := config.Load()
	slog.Info("starting understudy",
		"socket", cfg.SocketPath,
		"patterns", cfg.PatternPath,
		"models", cfg.ModelsEnabled,
	)

	fallback, err := rules.NewFallback(rules.CompileDefaults(cfg.Fallback))
	if err != nil {
		slog.Error("failed to compile fallback rules", "error", err)
		os.Exit(1)
	}

	var sessionJournal *journal.Journal
	if cfg.JournalPath != "" {
		sessionJournal, err = journal.Open(cfg.JournalPath)
		if err != nil {
			// The journal is an inspection aid; learning works without it.
			slog.Warn("session journal unavailable", "path", cfg.JournalPath, "error", err)
		} else {
			defer sessionJournal.Close()
		}
	}

	eng := engine.New(engine.Options{
		PatternPath: cfg.PatternPath,
		Models:      predict.New(cfg.ModelsEnabled, cfg.TrainingEpochs, cfg.LearningRate),
		Fallback:    fallback,
		Journal:     sessionJournal,
		CombatBonus: cfg.CombatBonus,
		GatherBonus: cfg.GatherBonus,
	})

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(cfg.SocketPath); err != nil {
		slog.Error("failed to clean up socket", "path", cfg.SocketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", cfg.SocketPath, "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(cfg.SocketPath)

	slog.Info("listening on domain socket", "path", cfg.SocketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go handleConn(conn, eng)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	// An interrupted session still gets analyzed and persisted.
	if err := eng.StopLearning(); err != nil {
		slog.Warn("final stop reported error", "error", err)
	}
}

func handleConn(conn net.Conn, eng *engine.Engine) {
	c := ipc.NewConnection(conn, nil)
	a := agent.New(c, eng)
	c.RegisterHandler(ipc.TypeHello, a.HandleHello)
	c.RegisterHandler(ipc.TypeObservedAction, a.HandleObservedAction)
	c.RegisterHandler(ipc.TypeStateSnapshot, a.HandleStateSnapshot)
	c.RegisterHandler(ipc.TypeControl, a.HandleControl)
	c.ReadLoop()
}
