package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/camsentry/backend/internal/camera"
	"github.com/camsentry/backend/internal/config"
	"github.com/camsentry/backend/internal/detector"
	"github.com/camsentry/backend/internal/frontend"
	"github.com/camsentry/backend/internal/mock"
	"github.com/camsentry/backend/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Use a scripted device list instead of real hardware")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	broadcaster := ws.NewBroadcaster(cfg.Server.MaxConnections)

	var enum camera.Enumerator
	if *mockMode {
		log.Println("Starting in mock mode (scripted device list)")
		enum = mock.NewEnumerator()
	} else {
		enum = camera.NewEnumerator()
	}

	det := detector.New(enum, broadcaster, cfg.Detector.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go det.Start(ctx)

	if cfg.Detector.WatchDevices && !*mockMode {
		if err := det.WatchDevices(ctx, cfg.Detector.DeviceDir); err != nil {
			log.Printf("Device watch disabled: %v", err)
		}
	}

	server := ws.NewServer(cfg, broadcaster, det.Status, frontend.Handler())
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %v, shutting down", sig)
		cancel()
	}()

	if err := server.Run(ctx, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
