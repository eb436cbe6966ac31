package server

import (
	"fmt"
	"sync"

	"github.com/decred/slog"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/cardroomd/cardroomd/pkg/session"
	"github.com/cardroomd/cardroomd/pkg/table"
)

// Publisher is the engine's outward side-channel, consumed by the external
// real-time transport. OnStateChanged and OnLog are invoked after every
// successful mutation and at every countdown tick, in the same causal order
// the mutations were applied.
type Publisher interface {
	OnStateChanged(tableID string, snapshot table.Snapshot)
	OnLog(tableID string, message string)
}

// TableDef configures one live table created at process start.
type TableDef struct {
	ID     string
	MinBet int64
}

// Config holds the server's collaborators and table definitions.
type Config struct {
	DB         Database
	LogBackend *logging.LogBackend
	Tables     []TableDef

	// DemoMode suppresses real balance debits/credits in single-player
	// sessions.
	DemoMode bool

	QueueSize int
	Workers   int

	// SessionSeed fixes the session deck RNG; 0 seeds from the clock.
	SessionSeed int64
}

// Server owns the live table registry and the single-player session
// registry. It is the composition root's handle on the whole engine; no
// module-level singletons are involved, so tests can spin up disposable
// servers.
type Server struct {
	log slog.Logger
	db  Database

	tables   map[string]*table.Table
	sessions *session.Registry
	queue    *SettlementQueue

	eventCh chan table.Event

	pubMu      sync.RWMutex
	publishers []Publisher

	mu         sync.RWMutex
	userTables map[string]string // userID -> tableID while seated

	quit chan struct{}
}

// NewServer wires tables, sessions and the settlement queue together.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("server: database is required")
	}
	if cfg.LogBackend == nil {
		return nil, fmt.Errorf("server: log backend is required")
	}

	log := cfg.LogBackend.Logger("SRVR")
	queue := NewSettlementQueue(cfg.DB, log, cfg.QueueSize, cfg.Workers)

	s := &Server{
		log:        log,
		db:         cfg.DB,
		tables:     make(map[string]*table.Table),
		queue:      queue,
		eventCh:    make(chan table.Event, 512),
		userTables: make(map[string]string),
		quit:       make(chan struct{}),
	}

	tblLog := cfg.LogBackend.Logger("TABL")
	for _, def := range cfg.Tables {
		if _, dup := s.tables[def.ID]; dup {
			return nil, fmt.Errorf("server: duplicate table id %q", def.ID)
		}
		t := table.New(table.Config{
			ID:     def.ID,
			Log:    tblLog,
			MinBet: def.MinBet,
		})
		t.SetEventChannel(s.eventCh)
		t.SetRecorder(queue)
		s.tables[def.ID] = t
	}

	s.sessions = session.NewRegistry(session.Config{
		Log:      cfg.LogBackend.Logger("SESS"),
		Bank:     &bank{db: cfg.DB},
		Recorder: queue,
		DemoMode: cfg.DemoMode,
		Seed:     cfg.SessionSeed,
	})

	return s, nil
}

// Start launches the settlement workers and the event fan-out loop.
func (s *Server) Start() {
	s.queue.Start()
	go s.fanOut()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	close(s.quit)
	s.queue.Stop()
}

// RegisterPublisher attaches a transport-side observer.
func (s *Server) RegisterPublisher(p Publisher) {
	s.pubMu.Lock()
	s.publishers = append(s.publishers, p)
	s.pubMu.Unlock()
}

// fanOut relays table events to the registered publishers. A single
// consumer preserves the per-table ordering established by the tables
// publishing under their locks.
func (s *Server) fanOut() {
	for {
		select {
		case <-s.quit:
			return
		case ev := <-s.eventCh:
			s.pubMu.RLock()
			pubs := s.publishers
			s.pubMu.RUnlock()
			for _, p := range pubs {
				switch ev.Type {
				case table.EventState:
					p.OnStateChanged(ev.TableID, *ev.Snapshot)
				case table.EventLog:
					p.OnLog(ev.TableID, ev.Message)
				}
			}
		}
	}
}

// getTable looks up a table by id.
func (s *Server) getTable(tableID string) (*table.Table, error) {
	t, ok := s.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("server: unknown table %q", tableID)
	}
	return t, nil
}

// JoinTable seats a user at a table, caching their stored balance as table
// chips. The VIP flag is supplied by the transport layer from the user's
// platform account.
func (s *Server) JoinTable(tableID, connID, userID, username string, isVIP bool) error {
	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}

	balance, err := s.db.GetPlayerBalance(userID)
	if err != nil {
		return fmt.Errorf("server: balance lookup for %s: %w", userID, err)
	}

	// One table per user: seating them elsewhere would orphan the old
	// seat, since userTables only tracks one entry. Rejoining the same
	// table is the reconnect path and stays legal.
	s.mu.Lock()
	if prev, ok := s.userTables[userID]; ok && prev != tableID {
		s.mu.Unlock()
		return fmt.Errorf("server: %s is already seated at table %q", userID, prev)
	}
	if err := t.Join(connID, userID, username, balance, isVIP); err != nil {
		s.mu.Unlock()
		return err
	}
	s.userTables[userID] = tableID
	s.mu.Unlock()
	return nil
}

// LeaveTable removes the user from whichever table they are seated at.
func (s *Server) LeaveTable(userID string) error {
	s.mu.Lock()
	tableID, ok := s.userTables[userID]
	if ok {
		delete(s.userTables, userID)
	}
	s.mu.Unlock()
	if !ok {
		return table.ErrNotSeated
	}

	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}
	return t.Leave(userID)
}

// PlaceBet places a bet at a table.
func (s *Server) PlaceBet(tableID, userID string, amount int64) error {
	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}
	return t.PlaceBet(userID, amount)
}

// StartRound starts a table's round immediately if bets are down.
func (s *Server) StartRound(tableID string) error {
	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}
	return t.StartRound()
}

// Hit draws a card for the acting player at a table.
func (s *Server) Hit(tableID, userID string) error {
	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}
	return t.Hit(userID)
}

// Stand ends the acting player's turn at a table.
func (s *Server) Stand(tableID, userID string) error {
	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}
	return t.Stand(userID)
}

// Double doubles down for the acting player at a table.
func (s *Server) Double(tableID, userID string) error {
	t, err := s.getTable(tableID)
	if err != nil {
		return err
	}
	return t.Double(userID)
}

// GetTableSnapshot returns the current full-state snapshot of a table.
func (s *Server) GetTableSnapshot(tableID string) (table.Snapshot, error) {
	t, err := s.getTable(tableID)
	if err != nil {
		return table.Snapshot{}, err
	}
	return t.GetSnapshot(), nil
}

// Sessions exposes the single-player session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}
