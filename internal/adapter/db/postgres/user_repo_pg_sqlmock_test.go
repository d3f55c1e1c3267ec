package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"user-wire-service/internal/domain/user"
	usecase "user-wire-service/internal/usecase/user"
	apperrors "user-wire-service/pkg/errors"
)

// setupMockStore opens the store through the postgres dialector so the exact
// statements sent to the server can be asserted.
func setupMockStore(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	return NewUserStore(db, zaptest.NewLogger(t)), mock
}

func connect(t *testing.T, store *UserStore) usecase.Session {
	t.Helper()
	sess, err := store.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestUserSessionPG_Insert(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users" ("name","email") VALUES ($1,$2) RETURNING "id"`)).
		WithArgs("Bob", "b@y.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	id, err := sess.Insert(context.Background(), &user.User{Name: "Bob", Email: "b@y.com"})
	require.NoError(t, err)
	assert.Equal(t, int32(5), id)
}

func TestUserSessionPG_InsertError(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(errors.New(`null value in column "name" violates not-null constraint`))

	_, err := sess.Insert(context.Background(), &user.User{Email: "b@y.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
}

func TestUserSessionPG_FindByID(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(42, "Alice", "a@x.com"))

	got, err := sess.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int32(42), *got.ID)
	assert.Equal(t, "Alice", got.Name)
}

func TestUserSessionPG_FindByID_NoRows(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	_, err := sess.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserSessionPG_FindByID_QueryError(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnError(errors.New("canceling statement due to statement timeout"))

	_, err := sess.FindByID(context.Background(), 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserSessionPG_ListHasNoOrdering(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectQuery(`^SELECT \* FROM "users"$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(3, "Carol", "c@z.com").
			AddRow(1, "Alice", "a@x.com"))

	users, err := sess.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int32(3), *users[0].ID)
	assert.Equal(t, int32(1), *users[1].ID)
}

func TestUserSessionPG_Update(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "email"=$1,"name"=$2 WHERE id = $3`)).
		WithArgs("c@z.com", "Carol", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	id := int32(3)
	assert.NoError(t, sess.Update(context.Background(), &user.User{ID: &id, Name: "Carol", Email: "c@z.com"}))
}

func TestUserSessionPG_Delete(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, sess.Delete(context.Background(), 4))
}

func TestUserSessionPG_DeleteError(t *testing.T) {
	store, mock := setupMockStore(t)
	sess := connect(t, store)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users"`)).
		WillReturnError(errors.New("deadlock detected"))

	err := sess.Delete(context.Background(), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete user")
}
