// Command stratum schedules multi-part additive builds: it interleaves
// independently sliced parts into one ordered timeline of global layers,
// persists finished schedules, and serves them over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/strataworks/stratum/internal/api"
	"github.com/strataworks/stratum/internal/plandb"
	"github.com/strataworks/stratum/internal/scheduler"
	"github.com/strataworks/stratum/internal/settings"
	"github.com/strataworks/stratum/internal/version"
)

var (
	dbPath        = flag.String("db", "plan_data.db", "Path to the plan database")
	settingsPath  = flag.String("settings", "", "Scheduling settings JSON (defaults when empty)")
	listen        = flag.String("listen", ":8080", "Listen address for serve mode")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migration files")
	verbose       = flag.Bool("verbose", false, "Log per-run scheduling diagnostics")
	trace         = flag.Bool("trace", false, "Log per-layer scheduling detail (implies -verbose)")
)

func main() {
	flag.Parse()

	logw := scheduler.LogWriters{Ops: os.Stderr}
	if *verbose || *trace {
		logw.Diag = os.Stderr
	}
	if *trace {
		logw.Trace = os.Stderr
	}
	scheduler.SetLogWriters(logw)

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "schedule":
		runSchedule(loadSettings(), args[1:])

	case "follow":
		runFollow(args[1:])

	case "serve":
		runServe(loadSettings())

	case "migrate":
		plandb.RunMigrateCommand(args[1:], *dbPath, *migrationsDir)

	case "report":
		runReport(args[1:])

	case "chart":
		runChart(args[1:])

	case "profile":
		runProfile(args[1:])

	case "version":
		fmt.Printf("stratum %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)

	case "help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func loadSettings() *settings.SchedulingConfig {
	if *settingsPath == "" {
		return settings.EmptySchedulingConfig()
	}
	cfg, err := settings.LoadSchedulingConfig(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	return cfg
}

func runServe(cfg *settings.SchedulingConfig) {
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	db, err := plandb.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to plan database: %v", err)
	}
	defer db.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(db, cfg).ServeMux()
		db.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("stratum %s listening on %s", version.Version, *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func printUsage() {
	fmt.Print(`Usage: stratum [flags] <command> [command flags]

Commands:
  schedule   Build the full batch schedule for a manifest
  follow     Replay a manifest through the incremental scheduler
  serve      Serve the scheduling API and admin routes
  migrate    Manage the plan database schema
  report     Print the layer report of a saved run
  chart      Write the HTML timeline of a saved run
  profile    Write the PNG height profile of a saved run
  version    Print version information
  help       Show this help

Flags (before the command):
`)
	flag.PrintDefaults()
}
