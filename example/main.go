package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/internal/browser"
)

const site = "http://localhost:9999"

func main() {
	// start mock site (see mock_server.go)
	go StartMockBookingSite(":9999")
	time.Sleep(100 * time.Millisecond)

	target, err := slotwatch.NewTarget(
		site+"/Services/Booking/489",
		site+"/Home?ReturnUrl=%2fServices",
		site+"/UserArea",
		slotwatch.WithSetupURL(site+"/Services"),
	)
	if err != nil {
		slog.Error("failed to create target", "error", err)
		os.Exit(1)
	}

	driver, err := browser.NewHTTPDriver(browser.WithRequestTimeout(10 * time.Second))
	if err != nil {
		slog.Error("failed to create driver", "error", err)
		os.Exit(1)
	}
	defer driver.Close()

	w, err := slotwatch.New(
		slotwatch.WithTarget(target),
		slotwatch.WithDriver(driver),
		slotwatch.WithCredentials("demo@example.com", "demo"),
		slotwatch.WithLoginForm("Email", "Password", site+"/Home/Login"),
		slotwatch.WithWorkers(3),
		slotwatch.WithProbeDelay(500*time.Millisecond),
		slotwatch.WithDryRun(true),
		slotwatch.WithStatusPort(8080),
		slotwatch.WithStatusCallback(func(e slotwatch.StatusEvent) {
			if e.State == slotwatch.StateSucceeded {
				fmt.Printf("  >> %s reached the booking page after %d attempts\n", e.Worker, e.Attempts)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   slotwatch Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   3 workers watching a mock booking page that opens   ║")
	fmt.Println("  ║   20-60 seconds from now                              ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Status: http://localhost:8080/api/status            ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := w.Run(ctx)
	if err != nil {
		slog.Error("slotwatch error", "error", err)
		os.Exit(1)
	}
	slog.Info("done", "winner", out.Winner, "notified", out.Notified)
}
