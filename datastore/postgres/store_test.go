/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/datastore/postgres"
	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

type project struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name" valid:"required"`
	Code      string    `db:"code" valid:"required"`
	Status    int       `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *project) StampCreated(now time.Time) { p.CreatedAt = now }
func (p *project) StampUpdated(now time.Time) { p.UpdatedAt = now }

var (
	projectSchema = storagemodels.Schema{
		Name:   "Project",
		Table:  "project",
		Key:    "id",
		Unique: []string{"code"},
		Fuzzy:  []string{"name"},
	}
	projectColumns = []string{"id", "name", "code", "status", "created_at", "updated_at"}
	fixedNow       = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	earlier        = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
)

func newMockStore(t *testing.T) (*postgres.Store[project], pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := postgres.New[project](mock,
		postgres.WithSchema(projectSchema),
		postgres.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return store, mock
}

func projectRows() *pgxmock.Rows {
	return pgxmock.NewRows(projectColumns)
}

func TestStoreImplementsDataStore(t *testing.T) {
	store, _ := newMockStore(t)
	var _ datastore.DataStore[project] = store
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO project \(name,code,status,created_at,updated_at\) VALUES \(\$1,\$2,\$3,\$4,\$5\) RETURNING id, name, code, status, created_at, updated_at`).
		WithArgs("Alpha", "P001", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(projectRows().AddRow(int64(1), "Alpha", "P001", 0, fixedNow, fixedNow))

	saved, err := store.Insert(ctx, project{Name: "Alpha", Code: "P001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, "Alpha", saved.Name)
	assert.Equal(t, fixedNow, saved.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertValidationFailsBeforeQuery(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.Insert(context.Background(), project{Code: "P001"})
	require.Error(t, err)

	var ve *rserrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO project`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (code)=(P001) already exists."})

	_, err := store.Insert(context.Background(), project{Name: "Beta", Code: "P001"})
	require.Error(t, err)

	var conflict *rserrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "code", conflict.Column)
	assert.Equal(t, "P001", conflict.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		setup   func(mock pgxmock.PgxPoolIface)
		wantNil bool
		wantErr func(error) bool
	}{
		{
			name: "found",
			id:   "1",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, name, code, status, created_at, updated_at FROM project WHERE id = \$1`).
					WithArgs(int64(1)).
					WillReturnRows(projectRows().AddRow(int64(1), "Alpha", "P001", 2, earlier, earlier))
			},
		},
		{
			name: "absent returns nil",
			id:   "99999",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM project WHERE id = \$1`).
					WithArgs(int64(99999)).
					WillReturnRows(projectRows())
			},
			wantNil: true,
		},
		{
			name:    "malformed id",
			id:      "abc",
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: rserrors.IsInvalidArgument,
		},
		{
			name:    "negative id",
			id:      "-4",
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: rserrors.IsInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setup(mock)

			found, err := store.FindByID(context.Background(), tt.id)
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
			case tt.wantNil:
				require.NoError(t, err)
				assert.Nil(t, found)
			default:
				require.NoError(t, err)
				require.NotNil(t, found)
				assert.Equal(t, "Alpha", found.Name)
				assert.Equal(t, 2, found.Status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE project SET code = \$1, created_at = \$2, name = \$3, status = \$4, updated_at = \$5 WHERE id = \$6 RETURNING`).
		WithArgs("P001", earlier, "Renamed", 1, pgxmock.AnyArg(), int64(1)).
		WillReturnRows(projectRows().AddRow(int64(1), "Renamed", "P001", 1, earlier, fixedNow))

	saved, err := store.Update(ctx, project{ID: 1, Name: "Renamed", Code: "P001", Status: 1, CreatedAt: earlier, UpdatedAt: earlier})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", saved.Name)
	assert.Equal(t, fixedNow, saved.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRecord(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE project`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(99999)).
		WillReturnRows(projectRows())

	_, err := store.Update(context.Background(), project{ID: 99999, Name: "Ghost", Code: "G"})
	require.Error(t, err)
	assert.True(t, rserrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRequiresKey(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.Update(context.Background(), project{Name: "NoKey", Code: "N"})
	require.Error(t, err)
	assert.True(t, rserrors.IsInvalidArgument(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM project WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(projectRows().AddRow(int64(1), "Alpha", "P001", 0, earlier, earlier))
	mock.ExpectQuery(`UPDATE project SET status = \$1, updated_at = \$2 WHERE id = \$3 RETURNING`).
		WithArgs(3, pgxmock.AnyArg(), int64(1)).
		WillReturnRows(projectRows().AddRow(int64(1), "Alpha", "P001", 3, earlier, fixedNow))

	saved, err := store.UpdateFields(ctx, "1", map[string]any{"status": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Status)
	assert.Equal(t, fixedNow, saved.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{name: "empty", fields: map[string]any{}},
		{name: "key column", fields: map[string]any{"id": 2}},
		{name: "unknown column", fields: map[string]any{"color": "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			_, err := store.UpdateFields(context.Background(), "1", tt.fields)
			require.Error(t, err)
			assert.True(t, rserrors.IsInvalidArgument(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateFieldsMissingRecord(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM project WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(projectRows())

	_, err := store.UpdateFields(context.Background(), "5", map[string]any{"status": 1})
	require.Error(t, err)
	assert.True(t, rserrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM project WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM project WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := store.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, deleted, "second delete is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM project WHERE \(name ILIKE \$1\)`).
		WithArgs("%proj%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT id, name, code, status, created_at, updated_at FROM project WHERE \(name ILIKE \$1\) ORDER BY id ASC LIMIT 10 OFFSET 0`).
		WithArgs("%proj%").
		WillReturnRows(projectRows().
			AddRow(int64(1), "Alpha Project", "P001", 0, earlier, earlier).
			AddRow(int64(3), "Gamma Project", "P003", 0, earlier, earlier))

	pred := filter.Predicate{}.And(filter.Like("name", "proj"))
	page, err := store.List(ctx, pred, storagemodels.PageSpec{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Size)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha Project", page.Items[0].Name)
	assert.Equal(t, "Gamma Project", page.Items[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrderedDescending(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM project$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`FROM project ORDER BY name DESC, id ASC LIMIT 5 OFFSET 5`).
		WillReturnRows(projectRows().AddRow(int64(4), "Delta", "P004", 0, earlier, earlier))

	page, err := store.List(context.Background(), filter.Predicate{}, storagemodels.PageSpec{Page: 2, Size: 5, OrderBy: "name", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, int64(3), page.Pages)
	assert.Len(t, page.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPastLastPageSkipsSelect(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM project`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))

	page, err := store.List(context.Background(), filter.Predicate{}, storagemodels.PageSpec{Page: 3, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRejectsUnknownColumns(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	_, err := store.List(ctx, filter.Predicate{}.And(filter.Eq("color", "red")), storagemodels.PageSpec{})
	assert.True(t, rserrors.IsInvalidArgument(err))

	_, err = store.List(ctx, filter.Predicate{}, storagemodels.PageSpec{OrderBy: "color"})
	assert.True(t, rserrors.IsInvalidArgument(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamPages(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM project WHERE \(status = \$1\) ORDER BY id ASC LIMIT 2 OFFSET 0`).
		WithArgs(int64(1)).
		WillReturnRows(projectRows().
			AddRow(int64(1), "a", "A", 1, earlier, earlier).
			AddRow(int64(2), "b", "B", 1, earlier, earlier))
	mock.ExpectQuery(`FROM project WHERE \(status = \$1\) ORDER BY id ASC LIMIT 2 OFFSET 2`).
		WithArgs(int64(1)).
		WillReturnRows(projectRows().AddRow(int64(5), "e", "E", 1, earlier, earlier))

	var progress storagemodels.StreamProgress
	pred := filter.Predicate{}.And(filter.Eq("status", int64(1)))
	results := store.Stream(context.Background(), pred,
		storagemodels.WithPageSize(2),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { progress = p }),
	)

	var ids []int64
	for r := range results {
		require.NoError(t, r.Error)
		ids = append(ids, r.Item.ID)
		assert.Equal(t, r.Item.Name, r.Raw["name"])
	}
	assert.Equal(t, []int64{1, 2, 5}, ids)
	assert.Equal(t, int64(3), progress.ItemsProcessed)
	assert.Equal(t, 2, progress.PagesProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamRetriesFailedPage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM project ORDER BY id ASC LIMIT 100 OFFSET 0`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`FROM project ORDER BY id ASC LIMIT 100 OFFSET 0`).
		WillReturnRows(projectRows().AddRow(int64(1), "a", "A", 0, earlier, earlier))

	results := store.Stream(context.Background(), filter.Predicate{},
		storagemodels.WithRetryBackoff(time.Millisecond),
	)

	var count int
	for r := range results {
		require.NoError(t, r.Error)
		count++
	}
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type account struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Deleted   int    `db:"deleted"`
	CreatedBy string `db:"created_by"`
	UpdatedBy string `db:"updated_by"`
}

func (a *account) StampCreatedBy(actor string) { a.CreatedBy = actor }
func (a *account) StampUpdatedBy(actor string) { a.UpdatedBy = actor }

var accountColumns = []string{"id", "username", "deleted", "created_by", "updated_by"}

func newAccountStore(t *testing.T) (*postgres.Store[account], pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := postgres.New[account](mock, postgres.WithSchema(storagemodels.Schema{
		Name:       "Account",
		Table:      "account",
		Key:        "id",
		SoftDelete: "deleted",
	}))
	require.NoError(t, err)
	return store, mock
}

func TestInsertStampsActor(t *testing.T) {
	store, mock := newAccountStore(t)

	mock.ExpectQuery(`INSERT INTO account \(username,deleted,created_by,updated_by\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING id, username, deleted, created_by, updated_by`).
		WithArgs("root", int64(0), "alice", "alice").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(int64(1), "root", 0, "alice", "alice"))

	ctx := storagemodels.WithActor(context.Background(), "alice")
	saved, err := store.Insert(ctx, account{Username: "root", Deleted: 1})
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteScopesStatements(t *testing.T) {
	ctx := context.Background()
	store, mock := newAccountStore(t)

	mock.ExpectExec(`UPDATE account SET deleted = \$1 WHERE \(id = \$2 AND deleted = \$3\)`).
		WithArgs(int64(1), int64(7), int64(0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE account SET deleted = \$1 WHERE \(id = \$2 AND deleted = \$3\)`).
		WithArgs(int64(1), int64(7), int64(0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT id, username, deleted, created_by, updated_by FROM account WHERE \(id = \$1 AND deleted = \$2\)`).
		WithArgs(int64(7), int64(0)).
		WillReturnRows(pgxmock.NewRows(accountColumns))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM account WHERE \(deleted = \$1\)`).
		WithArgs(int64(0)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	removed, err := store.DeleteByID(ctx, "7")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteByID(ctx, "7")
	require.NoError(t, err)
	assert.False(t, removed)

	found, err := store.FindByID(ctx, "7")
	require.NoError(t, err)
	assert.Nil(t, found)

	page, err := store.List(ctx, filter.Predicate{}, storagemodels.PageSpec{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	_, err = store.UpdateFields(ctx, "7", map[string]any{"deleted": 1})
	assert.True(t, rserrors.IsInvalidArgument(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
