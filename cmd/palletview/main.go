package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"palletvox.app/internal/config"
	"palletvox.app/internal/editor"
	"palletvox.app/internal/grid"
	editlog "palletvox.app/internal/persistence/log"
	"palletvox.app/internal/persistence/store"
	"palletvox.app/internal/render"
	"palletvox.app/internal/transport/observer"
)

func main() {
	var (
		tuningPath = flag.String("config", "./configs/tuning.yaml", "path to tuning.yaml")
		dbPath     = flag.String("db", "", "sqlite path (overrides config)")
		paletteID  = flag.String("palette", "", "palette id to open (default: most recently updated)")
		newDims    = flag.String("new", "", "create a palette with dimensions LxWxH and open it")
		name       = flag.String("name", "", "name for -new (default: Palette DD/MM/YYYY)")
		groupID    = flag.String("group", "", "group id for -new")
		logPath    = flag.String("log", "./data/palletview.log", "log file (the terminal belongs to the editor)")
		observe    = flag.String("observe", "", "loopback listen address for the observer feed (overrides config; empty disables)")
	)
	flag.Parse()

	logger, closeLog, err := openLogger(*logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
		os.Exit(1)
	}
	defer closeLog()

	tune, err := config.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *dbPath != "" {
		tune.Storage.DBPath = *dbPath
	}
	if *observe != "" {
		tune.Storage.ObserveAddr = *observe
	}
	ramp, err := tune.Ramp()
	if err != nil {
		logger.Fatalf("colors: %v", err)
	}

	st, err := store.Open(tune.Storage.DBPath, tune.Limits)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	p, err := openPalette(ctx, st, tune.Limits, *paletteID, *newDims, *name, *groupID)
	if err != nil {
		logger.Fatalf("palette: %v", err)
	}
	logger.Printf("editing palette %s %q %v (%s)", p.ID, p.Name, p.Dimensions, p.Stats.Badge())

	journal := editlog.NewEditLogger(tune.Storage.EditsDir, p.ID)
	defer journal.Close()

	var feed *observer.Server
	if tune.Storage.ObserveAddr != "" {
		feed = observer.NewServer(logger)
		srv, err := startObserver(tune.Storage.ObserveAddr, feed, logger)
		if err != nil {
			logger.Fatalf("observer: %v", err)
		}
		defer func() {
			ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		logger.Fatalf("screen init: %v", err)
	}
	defer screen.Fini()
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	term := render.NewTerminal(screen, tune.Render.CellWidthPx, tune.Render.CellHeightPx)
	cfg := editor.Config{
		Camera:        tune.Camera,
		Ramp:          ramp,
		DragThreshold: tune.DragThresholdPx,
		ConfirmWindow: tune.ConfirmWindow(),
		Journal:       journal,
		Logger:        logger,
	}
	if feed != nil {
		cfg.OnChange = feed.Publish
	}
	session := editor.NewSession(p, cfg)
	session.Resize(term.Viewport())

	saver := editor.NewAutoSaver(st, tune.SaveTimeout(), logger)
	loop := editor.NewLoop(session, saver, tune.AutosaveInterval(), logger)

	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()

	sched := render.NewScheduler(session, term, tune.Render.FPS)
	sched.Start()

	quit := make(chan struct{})
	go readInput(screen, term, loop, sched, quit)

	select {
	case <-ctx.Done():
	case <-quit:
	}
	stopLoop()
	if err := <-loopDone; err != nil {
		logger.Printf("loop: %v", err)
	}
	sched.Stop()

	final := session.Palette()
	logger.Printf("closed palette %s (%s)", final.ID, final.Stats.Badge())
}

func readInput(screen tcell.Screen, term *render.Terminal, loop *editor.Loop, sched *render.Scheduler, quit chan<- struct{}) {
	defer close(quit)
	m := &inputMapper{vp: term}
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		tr := m.translate(ev)
		if tr.quit {
			return
		}
		if tr.resize {
			screen.Sync()
			sched.Invalidate()
		}
		for _, e := range tr.events {
			if _, ok := e.(editor.PointerMove); ok {
				loop.TrySubmit(e)
				continue
			}
			if err := loop.Submit(context.Background(), e); err != nil {
				return
			}
		}
	}
}

// openPalette picks the palette to edit: an explicit id, a new one, the most
// recently updated, or a fresh default-sized one when the store is empty.
func openPalette(ctx context.Context, st *store.Store, limits grid.Limits, id, dims, name, groupID string) (store.Palette, error) {
	var group *string
	if g := strings.TrimSpace(groupID); g != "" {
		group = &g
	}
	switch {
	case id != "":
		return st.GetPalette(ctx, id)
	case dims != "":
		d, err := grid.ParseDimensions(dims)
		if err != nil {
			return store.Palette{}, err
		}
		return st.CreatePalette(ctx, d, name, group)
	}
	list, err := st.ListPalettes(ctx)
	if err != nil {
		return store.Palette{}, err
	}
	if len(list) > 0 {
		return list[0], nil
	}
	return st.CreatePalette(ctx, limits.Defaults(), name, group)
}

func startObserver(addr string, feed *observer.Server, logger *log.Logger) (*http.Server, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil, fmt.Errorf("observer address %s is not loopback", addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: feed.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("observer: %v", err)
		}
	}()
	logger.Printf("observer feed on http://%s/v1/state", ln.Addr())
	return srv, nil
}

func openLogger(path string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(f, "[palletview] ", log.LstdFlags|log.Lmicroseconds)
	return logger, func() { _ = f.Close() }, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
