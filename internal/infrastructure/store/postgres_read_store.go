package store

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/readmodel"
)

// ItemActivitySchema creates the table backing ItemActivityCollection.
const ItemActivitySchema = `
CREATE TABLE IF NOT EXISTS read_item_activity (
	item_id          TEXT PRIMARY KEY,
	succeeded        INTEGER NOT NULL DEFAULT 0,
	rejected         INTEGER NOT NULL DEFAULT 0,
	failed           INTEGER NOT NULL DEFAULT 0,
	quantity_added   INTEGER NOT NULL DEFAULT 0,
	last_cart_count  INTEGER,
	last_message     TEXT NOT NULL DEFAULT '',
	last_occurred_at TIMESTAMPTZ NOT NULL
)`

const selectItemActivity = `
	SELECT item_id, succeeded, rejected, failed, quantity_added,
		last_cart_count, last_message, last_occurred_at
	FROM read_item_activity`

// ConnectPostgres opens and pings a PostgreSQL pool.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// PostgresReadStore implements ReadStoreInterface on PostgreSQL. Only
// ItemActivityCollection is persisted; other collections are ignored.
type PostgresReadStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresReadStore(db *sql.DB, logger *zap.Logger) *PostgresReadStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresReadStore{db: db, logger: logger.Named("postgres-read-store")}
}

// Migrate creates the read model tables if they are missing.
func (rs *PostgresReadStore) Migrate() error {
	_, err := rs.db.Exec(ItemActivitySchema)
	return err
}

func (rs *PostgresReadStore) Set(collection, id string, data any) {
	if collection != ItemActivityCollection {
		return
	}
	item, ok := data.(*readmodel.ItemActivityReadModel)
	if !ok {
		rs.logger.Warn("unexpected read model type", zap.String("collection", collection), zap.Any("data", data))
		return
	}
	rs.setItemActivity(rs.db, id, item)
}

func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	if collection != ItemActivityCollection {
		return nil, false
	}
	item, ok := rs.getItemActivity(rs.db, id)
	if !ok {
		return nil, false
	}
	return item, true
}

func (rs *PostgresReadStore) GetAll(collection string) []any {
	if collection != ItemActivityCollection {
		return nil
	}
	rows, err := rs.db.Query(selectItemActivity + ` ORDER BY item_id`)
	if err != nil {
		rs.logger.Error("list item activity", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		item, err := scanItemActivity(rows)
		if err != nil {
			rs.logger.Error("scan item activity", zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rs.logger.Error("list item activity", zap.Error(err))
	}
	return items
}

func (rs *PostgresReadStore) Delete(collection, id string) {
	if collection != ItemActivityCollection {
		return
	}
	if _, err := rs.db.Exec(`DELETE FROM read_item_activity WHERE item_id = $1`, id); err != nil {
		rs.logger.Error("delete item activity", zap.String("item_id", id), zap.Error(err))
	}
}

// Update reads, transforms and writes the row inside one transaction holding
// a row lock.
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	if collection != ItemActivityCollection {
		return false
	}
	tx, err := rs.db.Begin()
	if err != nil {
		rs.logger.Error("begin update", zap.Error(err))
		return false
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRow(selectItemActivity+` WHERE item_id = $1 FOR UPDATE`, id)
	current, err := scanItemActivity(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			rs.logger.Error("get item activity", zap.String("item_id", id), zap.Error(err))
		}
		return false
	}
	next, ok := updateFn(current).(*readmodel.ItemActivityReadModel)
	if !ok {
		return false
	}
	if !rs.setItemActivity(tx, id, next) {
		return false
	}
	if err := tx.Commit(); err != nil {
		rs.logger.Error("commit update", zap.String("item_id", id), zap.Error(err))
		return false
	}
	return true
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (rs *PostgresReadStore) setItemActivity(db execer, id string, m *readmodel.ItemActivityReadModel) bool {
	var lastCount sql.NullInt64
	if m.LastCartCount != nil {
		lastCount = sql.NullInt64{Int64: int64(*m.LastCartCount), Valid: true}
	}
	_, err := db.Exec(`
		INSERT INTO read_item_activity (item_id, succeeded, rejected, failed, quantity_added,
			last_cart_count, last_message, last_occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (item_id) DO UPDATE SET
			succeeded = EXCLUDED.succeeded,
			rejected = EXCLUDED.rejected,
			failed = EXCLUDED.failed,
			quantity_added = EXCLUDED.quantity_added,
			last_cart_count = EXCLUDED.last_cart_count,
			last_message = EXCLUDED.last_message,
			last_occurred_at = EXCLUDED.last_occurred_at
	`, id, m.Succeeded, m.Rejected, m.Failed, m.QuantityAdded, lastCount, m.LastMessage, m.LastOccurredAt)
	if err != nil {
		rs.logger.Error("set item activity", zap.String("item_id", id), zap.Error(err))
		return false
	}
	return true
}

func (rs *PostgresReadStore) getItemActivity(db queryRower, id string) (*readmodel.ItemActivityReadModel, bool) {
	item, err := scanItemActivity(db.QueryRow(selectItemActivity+` WHERE item_id = $1`, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			rs.logger.Error("get item activity", zap.String("item_id", id), zap.Error(err))
		}
		return nil, false
	}
	return item, true
}

func scanItemActivity(row scanner) (*readmodel.ItemActivityReadModel, error) {
	var m readmodel.ItemActivityReadModel
	var lastCount sql.NullInt64
	if err := row.Scan(&m.ItemID, &m.Succeeded, &m.Rejected, &m.Failed, &m.QuantityAdded,
		&lastCount, &m.LastMessage, &m.LastOccurredAt); err != nil {
		return nil, err
	}
	if lastCount.Valid {
		n := int(lastCount.Int64)
		m.LastCartCount = &n
	}
	return &m, nil
}
