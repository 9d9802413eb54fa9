package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Alibek88alarko/LogiGo2/internal/db"
	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS messages (
	id                  BIGSERIAL PRIMARY KEY,
	stable_id           TEXT NOT NULL UNIQUE,
	subject             TEXT NOT NULL DEFAULT '',
	sender              TEXT NOT NULL DEFAULT '',
	received_time       TIMESTAMPTZ,
	body                TEXT NOT NULL DEFAULT '',
	html_body           TEXT NOT NULL DEFAULT '',
	attachments         JSONB NOT NULL DEFAULT '[]'::jsonb,
	request_type        TEXT NOT NULL DEFAULT '',
	origin              TEXT NOT NULL DEFAULT '',
	destination         TEXT NOT NULL DEFAULT '',
	cargo_details       TEXT NOT NULL DEFAULT '',
	transport_type      TEXT NOT NULL DEFAULT '',
	dates               TEXT NOT NULL DEFAULT '',
	price               TEXT NOT NULL DEFAULT '',
	additional_info     TEXT NOT NULL DEFAULT '',
	processed           BOOLEAN NOT NULL DEFAULT false,
	migration_processed BOOLEAN NOT NULL DEFAULT false,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS routes (
	id                 BIGSERIAL PRIMARY KEY,
	loading_location   TEXT NOT NULL,
	unloading_location TEXT NOT NULL,
	UNIQUE (loading_location, unloading_location)
);

CREATE TABLE IF NOT EXISTS transport_types (
	id   BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS transport_details (
	id                BIGSERIAL PRIMARY KEY,
	transport_type_id BIGINT NOT NULL REFERENCES transport_types(id),
	subtype           TEXT NOT NULL DEFAULT '',
	size              TEXT NOT NULL DEFAULT '',
	UNIQUE (transport_type_id, subtype, size)
);

CREATE TABLE IF NOT EXISTS prices (
	id                  BIGSERIAL PRIMARY KEY,
	transport_detail_id BIGINT NOT NULL REFERENCES transport_details(id),
	route_id            BIGINT NOT NULL REFERENCES routes(id),
	price               TEXT NOT NULL DEFAULT '',
	amount              DOUBLE PRECISION,
	currency            TEXT,
	message_id          BIGINT NOT NULL REFERENCES messages(id),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_messages_processed ON messages(processed);
CREATE INDEX IF NOT EXISTS idx_messages_migration_processed ON messages(migration_processed);
CREATE INDEX IF NOT EXISTS idx_prices_route_id ON prices(route_id);
CREATE INDEX IF NOT EXISTS idx_prices_message_id ON prices(message_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT stable_id FROM messages`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: existing ids")
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stable id")
		}
		ids[id] = struct{}{}
	}
	return ids, eris.Wrap(rows.Err(), "postgres: existing ids iterate")
}

func (s *PostgresStore) InsertMessage(ctx context.Context, msg *model.RawMessage) (int64, bool, error) {
	attachments, err := marshalAttachments(msg.Attachments)
	if err != nil {
		return 0, false, err
	}
	f := msg.Fields

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO messages (stable_id, subject, sender, received_time, body, html_body, attachments,
			request_type, origin, destination, cargo_details, transport_type, dates, price, additional_info,
			processed, migration_processed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (stable_id) DO NOTHING
		 RETURNING id`,
		msg.StableID, msg.Subject, msg.Sender, msg.ReceivedTime.UTC(), msg.Body, msg.HTMLBody, attachments,
		f.RequestType, f.Origin, f.Destination, f.CargoDetails, f.TransportType, f.Dates, f.Price, f.AdditionalInfo,
		msg.Processed, msg.MigrationProcessed,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrapf(err, "postgres: insert message %s", msg.StableID)
	}
	msg.ID = id
	return id, true, nil
}

const postgresMessageColumns = `id, stable_id, subject, sender, received_time, body, html_body, attachments::text,
	request_type, origin, destination, cargo_details, transport_type, dates, price, additional_info,
	processed, migration_processed, created_at`

func (s *PostgresStore) GetMessage(ctx context.Context, id int64) (*model.RawMessage, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresMessageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanPGMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: message %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get message %d", id)
	}
	return m, nil
}

func (s *PostgresStore) ListUnprocessed(ctx context.Context, limit int) ([]model.RawMessage, error) {
	return s.listMessages(ctx, `NOT processed`, limit, "postgres: list unprocessed")
}

func (s *PostgresStore) ListUnmigrated(ctx context.Context, limit int) ([]model.RawMessage, error) {
	return s.listMessages(ctx, `NOT migration_processed`, limit, "postgres: list unmigrated")
}

func (s *PostgresStore) listMessages(ctx context.Context, where string, limit int, op string) ([]model.RawMessage, error) {
	query := `SELECT ` + postgresMessageColumns + ` FROM messages WHERE ` + where + ` ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	defer rows.Close()

	var out []model.RawMessage
	for rows.Next() {
		m, err := scanPGMessage(rows)
		if err != nil {
			return nil, eris.Wrap(err, op+" scan")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), op+" iterate")
}

func (s *PostgresStore) UpdateExtraction(ctx context.Context, id int64, f model.MessageFields) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET request_type = $1, origin = $2, destination = $3, cargo_details = $4,
			transport_type = $5, dates = $6, price = $7, additional_info = $8, processed = true
		 WHERE id = $9`,
		f.RequestType, f.Origin, f.Destination, f.CargoDetails,
		f.TransportType, f.Dates, f.Price, f.AdditionalInfo, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update extraction %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "message %d", id)
	}
	return nil
}

func (s *PostgresStore) BeginNormalization(ctx context.Context) (NormalizeTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin")
	}
	return &postgresTx{tx: tx}, nil
}

func (s *PostgresStore) ListPrices(ctx context.Context, filter PriceFilter) ([]model.PriceRow, error) {
	query := `SELECT p.id, r.loading_location, r.unloading_location, t.type, d.subtype, d.size,
			p.price, p.amount, COALESCE(p.currency, ''), p.message_id, m.received_time
		FROM prices p
		JOIN routes r ON r.id = p.route_id
		JOIN transport_details d ON d.id = p.transport_detail_id
		JOIN transport_types t ON t.id = d.transport_type_id
		JOIN messages m ON m.id = p.message_id
		WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Origin != "" {
		query += fmt.Sprintf(` AND r.loading_location ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Origin+"%")
		argIdx++
	}
	if filter.Destination != "" {
		query += fmt.Sprintf(` AND r.unloading_location ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Destination+"%")
		argIdx++
	}
	if filter.TransportType != "" {
		query += fmt.Sprintf(` AND t.type ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.TransportType+"%")
		argIdx++
	}
	query += ` ORDER BY p.id DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, argIdx)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prices")
	}
	defer rows.Close()

	var out []model.PriceRow
	for rows.Next() {
		var r model.PriceRow
		var received *time.Time
		if err := rows.Scan(&r.PriceID, &r.LoadingLocation, &r.UnloadingLocation, &r.TransportType,
			&r.Subtype, &r.Size, &r.Value, &r.Amount, &r.Currency, &r.MessageID, &received); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price")
		}
		if received != nil {
			r.ReceivedTime = *received
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list prices iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := s.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM messages),
		(SELECT COUNT(*) FROM messages WHERE processed),
		(SELECT COUNT(*) FROM messages WHERE migration_processed),
		(SELECT COUNT(*) FROM routes),
		(SELECT COUNT(*) FROM transport_types),
		(SELECT COUNT(*) FROM transport_details),
		(SELECT COUNT(*) FROM prices)`,
	).Scan(&st.Messages, &st.Processed, &st.Migrated, &st.Routes, &st.TransportTypes, &st.TransportDetails, &st.Prices)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &st, nil
}

// postgresTx implements NormalizeTx over a pgx transaction.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) findOrCreate(ctx context.Context, entity, find, insert string, args ...any) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, find, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, eris.Wrapf(err, "postgres: find %s", entity)
	}
	if err := t.tx.QueryRow(ctx, insert, args...).Scan(&id); err != nil {
		return 0, eris.Wrapf(err, "postgres: insert %s", entity)
	}
	return id, nil
}

func (t *postgresTx) FindOrCreateRoute(ctx context.Context, loading, unloading string) (int64, error) {
	return t.findOrCreate(ctx, "route",
		`SELECT id FROM routes WHERE loading_location = $1 AND unloading_location = $2`,
		`INSERT INTO routes (loading_location, unloading_location) VALUES ($1, $2) RETURNING id`,
		loading, unloading,
	)
}

func (t *postgresTx) FindOrCreateTransportType(ctx context.Context, name string) (int64, error) {
	return t.findOrCreate(ctx, "transport type",
		`SELECT id FROM transport_types WHERE type = $1`,
		`INSERT INTO transport_types (type) VALUES ($1) RETURNING id`,
		name,
	)
}

func (t *postgresTx) FindOrCreateTransportDetail(ctx context.Context, typeID int64, subtype, size string) (int64, error) {
	return t.findOrCreate(ctx, "transport detail",
		`SELECT id FROM transport_details WHERE transport_type_id = $1 AND subtype = $2 AND size = $3`,
		`INSERT INTO transport_details (transport_type_id, subtype, size) VALUES ($1, $2, $3) RETURNING id`,
		typeID, subtype, size,
	)
}

func (t *postgresTx) InsertPrice(ctx context.Context, p *model.Price) (int64, error) {
	var currency *string
	if p.Currency != "" {
		currency = &p.Currency
	}
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO prices (transport_detail_id, route_id, price, amount, currency, message_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.TransportDetailID, p.RouteID, p.Value, p.Amount, currency, p.MessageID,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert price for message %d", p.MessageID)
	}
	p.ID = id
	return id, nil
}

func (t *postgresTx) MarkMigrated(ctx context.Context, messageID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE messages SET migration_processed = true WHERE id = $1`, messageID)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark migrated %d", messageID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "message %d", messageID)
	}
	return nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return eris.Wrap(t.tx.Commit(ctx), "postgres: commit")
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return eris.Wrap(err, "postgres: rollback")
}

func scanPGMessage(row scannable) (*model.RawMessage, error) {
	var m model.RawMessage
	var received *time.Time
	var attachments string
	f := &m.Fields

	err := row.Scan(&m.ID, &m.StableID, &m.Subject, &m.Sender, &received, &m.Body, &m.HTMLBody, &attachments,
		&f.RequestType, &f.Origin, &f.Destination, &f.CargoDetails, &f.TransportType, &f.Dates, &f.Price, &f.AdditionalInfo,
		&m.Processed, &m.MigrationProcessed, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if received != nil {
		m.ReceivedTime = *received
	}
	if m.Attachments, err = unmarshalAttachments(attachments); err != nil {
		return nil, err
	}
	return &m, nil
}
