package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/ayusman/handarm/internal/app"
	"github.com/ayusman/handarm/internal/capture"
	"github.com/ayusman/handarm/internal/config"
	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/gesture"
	"github.com/ayusman/handarm/internal/logging"
	"github.com/ayusman/handarm/internal/publish"
	"github.com/ayusman/handarm/internal/record"
	"github.com/ayusman/handarm/internal/render"
	"github.com/ayusman/handarm/internal/server"
	"github.com/ayusman/handarm/internal/store"
	"github.com/ayusman/handarm/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env", ".env", "path to a .env file")
	source := flag.String("source", "", "camera index or video file (overrides camera.source)")
	flag.Parse()

	fmt.Println("handarm - hand gesture control for a robotic arm")

	if err := run(*configPath, *envFile, *source); err != nil {
		log.Fatalf("handarm: %v", err)
	}
}

func run(configPath, envFile, source string) error {
	logger := logging.NewLogger("handarm")

	if loaded, err := config.LoadEnvFile(envFile); err != nil {
		logger.Warn("Failed to load env file", "path", envFile, "error", err)
	} else if loaded {
		logger.Info("Loaded env file", "path", envFile)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if source != "" {
		cfg.Camera.Source = source
	}
	logging.SetLevel(cfg.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if cfg.Record.Database != "" {
		st, err = store.New(cfg.Record.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer st.Close()
	}

	analyzer, err := gesture.NewAnalyzer(cfg.GestureConfig())
	if err != nil {
		return err
	}
	limiter, err := publish.NewLimiter(cfg.PublishConfig())
	if err != nil {
		return err
	}

	pub, err := publish.New(ctx, cfg.PublishConfig(), logger.With("publish"))
	if err != nil {
		logger.Warn("Publisher unavailable, logging commands instead", "transport", cfg.Publish.Transport, "error", err)
		pub = publish.NewLogPublisher(cfg.Publish.Topic, logger.With("publish"))
	}
	async := publish.NewAsync(pub, cfg.Publish.QueueSize, cfg.Publish.Timeout, logger.With("publish"))

	var recorders []record.Recorder
	if cfg.Record.CSV != "" {
		csv, err := record.NewCSVRecorder(cfg.Record.CSV, cfg.Record.CSVOpenness)
		if err != nil {
			return fmt.Errorf("failed to open csv log: %w", err)
		}
		recorders = append(recorders, csv)
		logger.Info("Recording samples", "csv", cfg.Record.CSV, "interval", cfg.Record.Interval)
	}

	var hub *server.Hub
	if cfg.Server.Addr != "" {
		hub = server.NewHub(logger.With("hub"))
	}

	var window *render.Window
	if cfg.Display.Window {
		window = render.NewWindow(cfg.Display.Title)
		defer window.Close()
	}

	var tr *tray.Tray
	if cfg.Display.Tray {
		tr = tray.New(cfg.Publish.Enabled)
	}

	a, err := app.New(app.Config{
		Camera:         capture.NewCamera(cfg.CameraConfig()),
		Detector:       newDetector(cfg, logger.With("detector")),
		Pipeline:       app.NewPipeline(analyzer, limiter, cfg.Gesture.PrimaryHand),
		Publisher:      async,
		Publishing:     cfg.Publish.Enabled,
		Recorders:      recorders,
		RecordInterval: cfg.Record.Interval,
		Store:          st,
		SessionConfig:  cfg.Snapshot(),
		Hub:            hub,
		Window:         window,
		Tray:           tr,
		MaxFailures:    cfg.Camera.MaxFailures,
		Log:            logger.With("app"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Error during shutdown", "error", err)
		}
	}()

	var wg sync.WaitGroup
	if hub != nil {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			Hub:       hub,
			Toggle:    a,
			Log:       logger.With("server"),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Monitor listening", "addr", cfg.Server.Addr)
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				logger.Error("Monitor failed", "error", err)
			}
		}()
	}
	defer wg.Wait()
	defer stop()

	if tr == nil {
		return a.Run(ctx)
	}

	// The tray owns the main thread; the frame loop runs headless beside it.
	tr.SetPublishing(a.Publishing())
	tr.OnToggle(a.SetPublishing)
	tr.OnQuit(stop)
	tr.OnMonitor(func() {
		if cfg.Server.Addr == "" {
			logger.Warn("Monitor is disabled, set server.addr to enable it")
			return
		}
		openBrowser(monitorURL(cfg.Server.Addr), logger)
	})

	runErr := make(chan error, 1)
	go func() {
		err := a.Run(ctx)
		runErr <- err
		tr.Quit()
	}()
	tr.Run()

	stop()
	return <-runErr
}

// newDetector tries MediaPipe first and falls back to the mock detector.
func newDetector(cfg *config.Config, logger *logging.Logger) detector.Detector {
	if cfg.Detector.Kind == config.DetectorMock {
		logger.Info("Using mock hand detection")
		return detector.NewMockDetector()
	}
	mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig(), logger)
	if err != nil {
		logger.Warn("MediaPipe not available, using mock detector", "error", err)
		return detector.NewMockDetector()
	}
	logger.Info("Using MediaPipe hand detection")
	return mp
}

func monitorURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string, logger *logging.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("Failed to open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handarm/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handarm", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
