package store

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/readmodel"
)

var itemActivityColumns = []string{
	"item_id", "succeeded", "rejected", "failed", "quantity_added",
	"last_cart_count", "last_message", "last_occurred_at",
}

func newPostgresStore(t *testing.T) (*PostgresReadStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresReadStore(db, nil), mock
}

func TestPostgresReadStore_Set(t *testing.T) {
	rs, mock := newPostgresStore(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	count := 4

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO read_item_activity")).
		WithArgs("11", 2, 1, 0, 3, sql.NullInt64{Int64: 4, Valid: true}, "Added", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rs.Set(ItemActivityCollection, "11", &readmodel.ItemActivityReadModel{
		ItemID: "11", Succeeded: 2, Rejected: 1, QuantityAdded: 3,
		LastCartCount: &count, LastMessage: "Added", LastOccurredAt: at,
	})
	rs.Set("carts", "11", &readmodel.ItemActivityReadModel{})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadStore_Get(t *testing.T) {
	rs, mock := newPostgresStore(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM read_item_activity WHERE item_id = $1")).
		WithArgs("11").
		WillReturnRows(sqlmock.NewRows(itemActivityColumns).AddRow("11", 1, 0, 2, 5, 7, "Added", at))
	mock.ExpectQuery(regexp.QuoteMeta("FROM read_item_activity WHERE item_id = $1")).
		WithArgs("12").
		WillReturnRows(sqlmock.NewRows(itemActivityColumns).AddRow("12", 0, 1, 0, 0, nil, "", at))
	mock.ExpectQuery(regexp.QuoteMeta("FROM read_item_activity WHERE item_id = $1")).
		WithArgs("13").
		WillReturnError(sql.ErrNoRows)

	got, ok := rs.Get(ItemActivityCollection, "11")
	require.True(t, ok)
	item := got.(*readmodel.ItemActivityReadModel)
	assert.Equal(t, 2, item.Failed)
	require.NotNil(t, item.LastCartCount)
	assert.Equal(t, 7, *item.LastCartCount)

	got, ok = rs.Get(ItemActivityCollection, "12")
	require.True(t, ok)
	assert.Nil(t, got.(*readmodel.ItemActivityReadModel).LastCartCount)

	_, ok = rs.Get(ItemActivityCollection, "13")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadStore_GetAll(t *testing.T) {
	rs, mock := newPostgresStore(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM read_item_activity ORDER BY item_id")).
		WillReturnRows(sqlmock.NewRows(itemActivityColumns).
			AddRow("11", 1, 0, 0, 1, 1, "", at).
			AddRow("12", 0, 0, 1, 0, nil, "", at))

	items := rs.GetAll(ItemActivityCollection)

	require.Len(t, items, 2)
	assert.Equal(t, "12", items[1].(*readmodel.ItemActivityReadModel).ItemID)
	assert.Nil(t, rs.GetAll("carts"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadStore_Update(t *testing.T) {
	rs, mock := newPostgresStore(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE item_id = $1 FOR UPDATE")).
		WithArgs("11").
		WillReturnRows(sqlmock.NewRows(itemActivityColumns).AddRow("11", 1, 0, 0, 1, nil, "", at))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO read_item_activity")).
		WithArgs("11", 2, 0, 0, 1, sql.NullInt64{}, "", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok := rs.Update(ItemActivityCollection, "11", func(current any) any {
		m := current.(*readmodel.ItemActivityReadModel)
		m.Succeeded++
		return m
	})

	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadStore_UpdateMissingRow(t *testing.T) {
	rs, mock := newPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("11").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	called := false
	ok := rs.Update(ItemActivityCollection, "11", func(current any) any {
		called = true
		return current
	})

	assert.False(t, ok)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadStore_Delete(t *testing.T) {
	rs, mock := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM read_item_activity WHERE item_id = $1")).
		WithArgs("11").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rs.Delete(ItemActivityCollection, "11")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadStore_Migrate(t *testing.T) {
	rs, mock := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS read_item_activity")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, rs.Migrate())
	assert.NoError(t, mock.ExpectationsWereMet())
}
