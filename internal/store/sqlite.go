package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps PRAGMA foreign_keys on every statement.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS messages (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	stable_id           TEXT NOT NULL UNIQUE,
	subject             TEXT NOT NULL DEFAULT '',
	sender              TEXT NOT NULL DEFAULT '',
	received_time       DATETIME,
	body                TEXT NOT NULL DEFAULT '',
	html_body           TEXT NOT NULL DEFAULT '',
	attachments         TEXT NOT NULL DEFAULT '[]',
	request_type        TEXT NOT NULL DEFAULT '',
	origin              TEXT NOT NULL DEFAULT '',
	destination         TEXT NOT NULL DEFAULT '',
	cargo_details       TEXT NOT NULL DEFAULT '',
	transport_type      TEXT NOT NULL DEFAULT '',
	dates               TEXT NOT NULL DEFAULT '',
	price               TEXT NOT NULL DEFAULT '',
	additional_info     TEXT NOT NULL DEFAULT '',
	processed           INTEGER NOT NULL DEFAULT 0,
	migration_processed INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS routes (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	loading_location   TEXT NOT NULL,
	unloading_location TEXT NOT NULL,
	UNIQUE (loading_location, unloading_location)
);

CREATE TABLE IF NOT EXISTS transport_types (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS transport_details (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	transport_type_id INTEGER NOT NULL REFERENCES transport_types(id),
	subtype           TEXT NOT NULL DEFAULT '',
	size              TEXT NOT NULL DEFAULT '',
	UNIQUE (transport_type_id, subtype, size)
);

CREATE TABLE IF NOT EXISTS prices (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	transport_detail_id INTEGER NOT NULL REFERENCES transport_details(id),
	route_id            INTEGER NOT NULL REFERENCES routes(id),
	price               TEXT NOT NULL DEFAULT '',
	amount              REAL,
	currency            TEXT,
	message_id          INTEGER NOT NULL REFERENCES messages(id),
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_messages_processed ON messages(processed);
CREATE INDEX IF NOT EXISTS idx_messages_migration_processed ON messages(migration_processed);
CREATE INDEX IF NOT EXISTS idx_prices_route_id ON prices(route_id);
CREATE INDEX IF NOT EXISTS idx_prices_message_id ON prices(message_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stable_id FROM messages`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: existing ids")
	}
	defer rows.Close() //nolint:errcheck

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stable id")
		}
		ids[id] = struct{}{}
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: existing ids iterate")
}

func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *model.RawMessage) (int64, bool, error) {
	attachments, err := marshalAttachments(msg.Attachments)
	if err != nil {
		return 0, false, err
	}
	f := msg.Fields

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (stable_id, subject, sender, received_time, body, html_body, attachments,
			request_type, origin, destination, cargo_details, transport_type, dates, price, additional_info,
			processed, migration_processed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(stable_id) DO NOTHING`,
		msg.StableID, msg.Subject, msg.Sender, msg.ReceivedTime.UTC(), msg.Body, msg.HTMLBody, attachments,
		f.RequestType, f.Origin, f.Destination, f.CargoDetails, f.TransportType, f.Dates, f.Price, f.AdditionalInfo,
		msg.Processed, msg.MigrationProcessed, time.Now().UTC(),
	)
	if err != nil {
		return 0, false, eris.Wrapf(err, "sqlite: insert message %s", msg.StableID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, eris.Wrap(err, "sqlite: last insert id")
	}
	msg.ID = id
	return id, true, nil
}

const sqliteMessageColumns = `id, stable_id, subject, sender, received_time, body, html_body, attachments,
	request_type, origin, destination, cargo_details, transport_type, dates, price, additional_info,
	processed, migration_processed, created_at`

func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*model.RawMessage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteMessageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: message %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get message %d", id)
	}
	return m, nil
}

func (s *SQLiteStore) ListUnprocessed(ctx context.Context, limit int) ([]model.RawMessage, error) {
	return s.listMessages(ctx, `processed = 0`, limit, "sqlite: list unprocessed")
}

func (s *SQLiteStore) ListUnmigrated(ctx context.Context, limit int) ([]model.RawMessage, error) {
	return s.listMessages(ctx, `migration_processed = 0`, limit, "sqlite: list unmigrated")
}

func (s *SQLiteStore) listMessages(ctx context.Context, where string, limit int, op string) ([]model.RawMessage, error) {
	query := `SELECT ` + sqliteMessageColumns + ` FROM messages WHERE ` + where + ` ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RawMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, eris.Wrap(err, op+" scan")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), op+" iterate")
}

func (s *SQLiteStore) UpdateExtraction(ctx context.Context, id int64, f model.MessageFields) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET request_type = ?, origin = ?, destination = ?, cargo_details = ?,
			transport_type = ?, dates = ?, price = ?, additional_info = ?, processed = 1
		 WHERE id = ?`,
		f.RequestType, f.Origin, f.Destination, f.CargoDetails,
		f.TransportType, f.Dates, f.Price, f.AdditionalInfo, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update extraction %d", id)
	}
	return checkRowsAffected(res, "message", id)
}

func (s *SQLiteStore) BeginNormalization(ctx context.Context) (NormalizeTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	return &sqliteTx{tx: tx}, nil
}

func (s *SQLiteStore) ListPrices(ctx context.Context, filter PriceFilter) ([]model.PriceRow, error) {
	query := `SELECT p.id, r.loading_location, r.unloading_location, t.type, d.subtype, d.size,
			p.price, p.amount, COALESCE(p.currency, ''), p.message_id, m.received_time
		FROM prices p
		JOIN routes r ON r.id = p.route_id
		JOIN transport_details d ON d.id = p.transport_detail_id
		JOIN transport_types t ON t.id = d.transport_type_id
		JOIN messages m ON m.id = p.message_id
		WHERE 1=1`
	var args []any

	if filter.Origin != "" {
		query += ` AND r.loading_location LIKE ?`
		args = append(args, "%"+filter.Origin+"%")
	}
	if filter.Destination != "" {
		query += ` AND r.unloading_location LIKE ?`
		args = append(args, "%"+filter.Destination+"%")
	}
	if filter.TransportType != "" {
		query += ` AND t.type LIKE ?`
		args = append(args, "%"+filter.TransportType+"%")
	}
	query += ` ORDER BY p.id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prices")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PriceRow
	for rows.Next() {
		var r model.PriceRow
		var received sql.NullTime
		if err := rows.Scan(&r.PriceID, &r.LoadingLocation, &r.UnloadingLocation, &r.TransportType,
			&r.Subtype, &r.Size, &r.Value, &r.Amount, &r.Currency, &r.MessageID, &received); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price")
		}
		if received.Valid {
			r.ReceivedTime = received.Time
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list prices iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM messages),
		(SELECT COUNT(*) FROM messages WHERE processed = 1),
		(SELECT COUNT(*) FROM messages WHERE migration_processed = 1),
		(SELECT COUNT(*) FROM routes),
		(SELECT COUNT(*) FROM transport_types),
		(SELECT COUNT(*) FROM transport_details),
		(SELECT COUNT(*) FROM prices)`,
	).Scan(&st.Messages, &st.Processed, &st.Migrated, &st.Routes, &st.TransportTypes, &st.TransportDetails, &st.Prices)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &st, nil
}

// sqliteTx implements NormalizeTx over a database/sql transaction.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) FindOrCreateRoute(ctx context.Context, loading, unloading string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM routes WHERE loading_location = ? AND unloading_location = ?`,
		loading, unloading,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, eris.Wrap(err, "sqlite: find route")
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO routes (loading_location, unloading_location) VALUES (?, ?)`,
		loading, unloading,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert route")
	}
	return lastID(res, "route")
}

func (t *sqliteTx) FindOrCreateTransportType(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM transport_types WHERE type = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, eris.Wrap(err, "sqlite: find transport type")
	}
	res, err := t.tx.ExecContext(ctx, `INSERT INTO transport_types (type) VALUES (?)`, name)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert transport type")
	}
	return lastID(res, "transport type")
}

func (t *sqliteTx) FindOrCreateTransportDetail(ctx context.Context, typeID int64, subtype, size string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM transport_details WHERE transport_type_id = ? AND subtype = ? AND size = ?`,
		typeID, subtype, size,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, eris.Wrap(err, "sqlite: find transport detail")
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO transport_details (transport_type_id, subtype, size) VALUES (?, ?, ?)`,
		typeID, subtype, size,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert transport detail")
	}
	return lastID(res, "transport detail")
}

func (t *sqliteTx) InsertPrice(ctx context.Context, p *model.Price) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO prices (transport_detail_id, route_id, price, amount, currency, message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.TransportDetailID, p.RouteID, p.Value, p.Amount, nullString(p.Currency), p.MessageID, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert price for message %d", p.MessageID)
	}
	id, err := lastID(res, "price")
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (t *sqliteTx) MarkMigrated(ctx context.Context, messageID int64) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE messages SET migration_processed = 1 WHERE id = ?`, messageID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark migrated %d", messageID)
	}
	return checkRowsAffected(res, "message", messageID)
}

func (t *sqliteTx) Commit(_ context.Context) error {
	return eris.Wrap(t.tx.Commit(), "sqlite: commit")
}

func (t *sqliteTx) Rollback(_ context.Context) error {
	err := t.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return eris.Wrap(err, "sqlite: rollback")
}

// helpers

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %d", entity, id)
	}
	return nil
}

func lastID(res sql.Result, entity string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: %s id", entity)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalAttachments(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal attachments")
	}
	return string(b), nil
}

func unmarshalAttachments(raw string) ([]string, error) {
	names := []string{}
	if raw == "" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal attachments")
	}
	return names, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMessage(row scannable) (*model.RawMessage, error) {
	var m model.RawMessage
	var received sql.NullTime
	var attachments string
	f := &m.Fields

	err := row.Scan(&m.ID, &m.StableID, &m.Subject, &m.Sender, &received, &m.Body, &m.HTMLBody, &attachments,
		&f.RequestType, &f.Origin, &f.Destination, &f.CargoDetails, &f.TransportType, &f.Dates, &f.Price, &f.AdditionalInfo,
		&m.Processed, &m.MigrationProcessed, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if received.Valid {
		m.ReceivedTime = received.Time
	}
	if m.Attachments, err = unmarshalAttachments(attachments); err != nil {
		return nil, err
	}
	return &m, nil
}
