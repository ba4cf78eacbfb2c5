// Package journal persists escrow events in a relational database so the
// event history survives restarts and can be queried by party or token.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/logging"
	_ "github.com/lib/pq"    // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal is closed")

// Config contains journal connection settings
type Config struct {
	Driver         string
	DSN            string
	MaxOpenConns   int
	DefaultTimeout time.Duration
}

// Journal is an append-only event table. It implements escrow.Sink.
type Journal struct {
	// mu guards db; operations hold it shared so Close waits for them.
	mu     sync.RWMutex
	db     *sql.DB
	config Config
	logger logging.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger for the journal
func WithLogger(l logging.Logger) Option {
	return func(j *Journal) {
		j.logger = l
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS escrow_events (
	seq         BIGINT PRIMARY KEY,
	kind        TEXT   NOT NULL,
	ledger_time BIGINT NOT NULL,
	creator     TEXT   NOT NULL,
	nonce       BIGINT NOT NULL,
	sender      TEXT   NOT NULL,
	receiver    TEXT   NOT NULL,
	token       TEXT   NOT NULL,
	amount      TEXT   NOT NULL,
	payload     TEXT   NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_escrow_events_creator ON escrow_events (creator, nonce);
CREATE INDEX IF NOT EXISTS idx_escrow_events_sender ON escrow_events (sender);
CREATE INDEX IF NOT EXISTS idx_escrow_events_receiver ON escrow_events (receiver);
CREATE INDEX IF NOT EXISTS idx_escrow_events_token ON escrow_events (token);
`

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Journal, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported journal driver %q", cfg.Driver)
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if cfg.Driver == DriverSQLite {
		// one writer; also keeps an in-memory database on a single connection
		maxConns = 1
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	j := &Journal{db: db, config: cfg, logger: logging.Nop{}}
	for _, opt := range opts {
		opt(j)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DefaultTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if err := j.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// rebind rewrites ? placeholders to $n for postgres.
func (j *Journal) rebind(query string) string {
	if j.config.Driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func accountKey(id types.AccountID) string {
	if id.IsZero() {
		return ""
	}
	return id.Address()
}

func tokenKey(t types.Token) string {
	if t.IsZero() {
		return ""
	}
	return t.String()
}

// Append stores ev. Appending an already stored sequence is a no-op.
func (j *Journal) Append(ctx context.Context, ev escrow.Event) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return ErrClosed
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	_, err = j.db.ExecContext(ctx, j.rebind(`
		INSERT INTO escrow_events
			(seq, kind, ledger_time, creator, nonce, sender, receiver, token, amount, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (seq) DO NOTHING`),
		int64(ev.Seq), string(ev.Kind), int64(ev.LedgerTime), accountKey(ev.Creator), int64(ev.Nonce),
		accountKey(ev.Sender()), accountKey(ev.Receiver()), tokenKey(ev.Token), ev.Amount.String(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("append event %d: %w", ev.Seq, err)
	}
	j.logger.Debug("journal append", "seq", ev.Seq, "kind", ev.Kind)
	return nil
}

// Publish implements escrow.Sink.
func (j *Journal) Publish(ctx context.Context, ev escrow.Event) error {
	return j.Append(ctx, ev)
}

// List returns the stored events matching f in sequence order.
func (j *Journal) List(ctx context.Context, f escrow.Filter) ([]escrow.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, ErrClosed
	}

	where := []string{"seq > ?"}
	args := []any{int64(f.AfterSeq)}

	if len(f.Kinds) > 0 {
		marks := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			marks[i] = "?"
			args = append(args, string(k))
		}
		where = append(where, "kind IN ("+strings.Join(marks, ", ")+")")
	}
	if !f.Sender.IsZero() {
		where = append(where, "sender = ?")
		args = append(args, accountKey(f.Sender))
	}
	if !f.Receiver.IsZero() {
		where = append(where, "receiver = ?")
		args = append(args, accountKey(f.Receiver))
	}
	if !f.Creator.IsZero() {
		where = append(where, "creator = ?")
		args = append(args, accountKey(f.Creator))
	}
	if !f.Token.IsZero() {
		where = append(where, "token = ?")
		args = append(args, tokenKey(f.Token))
	}

	query := "SELECT payload FROM escrow_events WHERE " + strings.Join(where, " AND ") + " ORDER BY seq"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx, j.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []escrow.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev escrow.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LastSeq returns the highest stored sequence, or 0 when empty.
func (j *Journal) LastSeq(ctx context.Context) (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return 0, ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM escrow_events").Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}
