// arbiter runs a chess-engine tournament from a YAML configuration file: it spawns each
// participant as a UCI subprocess, dispatches games under a concurrency cap, tracks standings and
// an optional SPRT, and writes a crash-tolerant resume snapshot as it goes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/herohde/morlock/pkg/arbiter"
	"github.com/herohde/morlock/pkg/observer"
	"github.com/herohde/morlock/pkg/pgn"
	"github.com/herohde/morlock/pkg/resume"
	"github.com/herohde/morlock/pkg/schedule"
	"github.com/herohde/morlock/pkg/tconfig"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 1, 0)

var (
	configPath = flag.String("config", "", "Tournament configuration file (YAML)")
	resumePath = flag.String("resume", "", "Resume from a snapshot file instead of -config")
	listen     = flag.String("observe", "", "Optional address to serve the WebSocket observer feed on, e.g. :8080")
	exportPGN  = flag.String("export", "", "Copy the completed record file to this path on exit")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: arbiter -config tournament.yaml [options]

arbiter (%v) runs an engine-vs-engine tournament to completion.
Options:
`, version)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()
	logw.Infof(ctx, "arbiter %v starting", version)

	a, cfg, err := load(*configPath, *resumePath)
	if err != nil {
		logw.Exitf(ctx, "arbiter: %v", err)
	}

	var hub *observer.Hub
	if *listen != "" {
		hub = observer.NewHub()
		go serveObserver(ctx, *listen, hub)
		go forwardEvents(ctx, a, hub)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logw.Infof(ctx, "arbiter: stop requested")
		a.Stop()
	}()

	if err := a.Start(ctx); err != nil {
		logw.Exitf(ctx, "arbiter: tournament failed: %v", err)
	}

	total, remaining := a.Progress()
	logw.Infof(ctx, "arbiter: finished, %v/%v games complete", total-remaining, total)

	if *exportPGN != "" && cfg.PGNPath != "" {
		if err := pgn.CopyTo(cfg.PGNPath, *exportPGN); err != nil {
			logw.Warningf(ctx, "arbiter: export failed: %v", err)
		}
	}
	if hub != nil {
		hub.Close()
	}
}

func load(configPath, resumePath string) (*arbiter.Arbiter, tconfig.TournamentConfig, error) {
	if resumePath != "" {
		snap, err := resume.Load(resumePath)
		if err != nil {
			return nil, tconfig.TournamentConfig{}, fmt.Errorf("load resume snapshot: %w", err)
		}
		a, err := arbiter.Resume(snap)
		if err != nil {
			return nil, tconfig.TournamentConfig{}, err
		}
		return a, snap.Config, nil
	}

	if configPath == "" {
		return nil, tconfig.TournamentConfig{}, fmt.Errorf("-config is required (or -resume)")
	}
	cfg, err := tconfig.Load(configPath)
	if err != nil {
		return nil, tconfig.TournamentConfig{}, err
	}
	if cfg.ResumeFromState && cfg.ResumeStatePath != "" && resume.Exists(cfg.ResumeStatePath) {
		snap, err := resume.Load(cfg.ResumeStatePath)
		if err != nil {
			return nil, tconfig.TournamentConfig{}, fmt.Errorf("load resume snapshot: %w", err)
		}
		a, err := arbiter.Resume(snap)
		if err != nil {
			return nil, tconfig.TournamentConfig{}, err
		}
		return a, snap.Config, nil
	}

	a, err := arbiter.New(cfg)
	if err != nil {
		return nil, tconfig.TournamentConfig{}, err
	}
	return a, cfg, nil
}

func serveObserver(ctx context.Context, addr string, hub *observer.Hub) {
	logw.Infof(ctx, "arbiter: observer feed listening on %v", addr)
	if err := http.ListenAndServe(addr, hub); err != nil {
		logw.Warningf(ctx, "arbiter: observer server stopped: %v", err)
	}
}

// forwardEvents republishes the Arbiter's outbound channels onto the observer hub until every
// channel is drained (the Arbiter never closes them, so this runs for the process lifetime).
func forwardEvents(ctx context.Context, a *arbiter.Arbiter, hub *observer.Hub) {
	events := a.Events()
	for {
		select {
		case m := <-events.Moves:
			hub.Publish(observer.KindGameUpdate, m)
		case s := <-events.Stats:
			hub.Publish(observer.KindEngineStats, s)
		case u := <-events.Schedule:
			hub.Publish(observer.KindScheduleUpdate, scheduleView(u))
		case t := <-events.Tournament:
			hub.Publish(observer.KindTournamentStats, t)
		case toast := <-events.Toasts:
			hub.Publish(observer.KindToast, toast)
		case <-ctx.Done():
			return
		}
	}
}

func scheduleView(u schedule.ScheduledUpdate) *schedule.Game {
	return u.Game
}
