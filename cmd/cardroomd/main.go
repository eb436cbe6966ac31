package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/cardroomd/cardroomd/pkg/server"
)

// parseTables parses a comma-separated list of id:minbet pairs, e.g.
// "main:10,highroller:100".
func parseTables(spec string) ([]server.TableDef, error) {
	var defs []server.TableDef
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, minStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid table spec %q (want id:minbet)", part)
		}
		minBet, err := strconv.ParseInt(minStr, 10, 64)
		if err != nil || minBet <= 0 {
			return nil, fmt.Errorf("invalid min bet in table spec %q", part)
		}
		defs = append(defs, server.TableDef{ID: id, MinBet: minBet})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no tables configured")
	}
	return defs, nil
}

func main() {
	// Optional .env overlay; flags still win over the environment.
	_ = godotenv.Load()

	var (
		dbPath     string
		tablesSpec string
		demoMode   bool
		debugLevel string
	)
	flag.StringVar(&dbPath, "db", os.Getenv("CARDROOM_DB"), "Path to SQLite database file (created if missing)")
	flag.StringVar(&tablesSpec, "tables", envOr("CARDROOM_TABLES", "main:10"), "Comma-separated table definitions, id:minbet")
	flag.BoolVar(&demoMode, "demomode", os.Getenv("CARDROOM_DEMO") == "1", "Suppress real balance debits/credits in single-player sessions")
	flag.StringVar(&debugLevel, "debuglevel", envOr("CARDROOM_DEBUG", "info"), "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "cardroom.sqlite")
	}

	defs, err := parseTables(tablesSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -tables: %v\n", err)
		os.Exit(1)
	}

	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: debugLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(server.Config{
		DB:         db,
		LogBackend: logBackend,
		Tables:     defs,
		DemoMode:   demoMode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}
	srv.Start()
	defer srv.Stop()

	// The transport layer (external to this process's scope) registers its
	// publisher and drives the action surface. Here we just hold the engine
	// up until the process is told to stop.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
