package relational

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"delta-apply/core/database"
	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupSQLite opens a shared in-memory database private to the test.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func seed(t *testing.T, db *gorm.DB, table string, rows ...string) {
	t.Helper()
	require.NoError(t, db.Exec(fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY, name TEXT, amount INTEGER)", table)).Error)
	for _, r := range rows {
		require.NoError(t, db.Exec(fmt.Sprintf("INSERT INTO %s (id, name, amount) VALUES %s", table, r)).Error)
	}
}

func records(t *testing.T, db *gorm.DB, table string) [][]any {
	t.Helper()
	ds, err := New(db, table).ReadAll(context.Background())
	require.NoError(t, err)
	return ds.Records()
}

func TestTable_ReadAll(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, label VARCHAR(20), price REAL, active BOOLEAN, note TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO items VALUES (1, 'a', 1.5, 1, NULL), (2, 'b', 2, 0, 'x')").Error)

	ds, err := New(db, "items").ReadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []dataset.Column{
		{Name: "id", Type: dataset.TypeInt},
		{Name: "label", Type: dataset.TypeString},
		{Name: "price", Type: dataset.TypeFloat},
		{Name: "active", Type: dataset.TypeBool},
		{Name: "note", Type: dataset.TypeString},
	}, ds.Schema().Columns)
	assert.Equal(t, [][]any{
		{int64(1), "a", 1.5, true, nil},
		{int64(2), "b", 2.0, false, "x"},
	}, ds.Records())
}

func TestTable_MissingTable(t *testing.T) {
	db := setupSQLite(t)
	_, err := New(db, "nope").ReadAll(context.Background())
	assert.ErrorContains(t, err, "does not exist")
}

func TestTable_ApplyAllConverges(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	seed(t, db, "desired", "(1,'Alice',10)", "(2,'Bob Updated',25)", "(3,'Charlie',30)", "(4,'David',40)")
	seed(t, db, "users", "(1,'Alice',10)", "(2,'Bob',20)", "(5,'Eve',50)")

	s, err := reconcile.New(New(db, "desired"), New(db, "users"), []string{"id"}, reconcile.Options{})
	require.NoError(t, err)

	result, err := s.Apply(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "users", result.Report.Location)
	assert.Equal(t, []reconcile.Operation{reconcile.OpDelete, reconcile.OpInsert, reconcile.OpUpdate}, result.Report.Committed)

	assert.Equal(t, [][]any{
		{int64(1), "Alice", int64(10)},
		{int64(2), "Bob Updated", int64(25)},
		{int64(3), "Charlie", int64(30)},
		{int64(4), "David", int64(40)},
	}, records(t, db, "users"))

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Summary{UnchangedCount: 4}, summary)
}

func TestTable_MixedColumnTypesConverge(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   [][]any
	}{
		{
			name:   "fractional float into integer column",
			source: "CREATE TABLE desired (id INTEGER PRIMARY KEY, v REAL); INSERT INTO desired VALUES (1, 10.5), (2, 20)",
			target: "CREATE TABLE users (id INTEGER PRIMARY KEY, v INTEGER); INSERT INTO users VALUES (1, 10), (2, 20)",
			want:   [][]any{{int64(1), 10.5}, {int64(2), 20.0}},
		},
		{
			name:   "int into real column",
			source: "CREATE TABLE desired (id INTEGER PRIMARY KEY, v INTEGER); INSERT INTO desired VALUES (1, 10), (2, 7)",
			target: "CREATE TABLE users (id INTEGER PRIMARY KEY, v REAL); INSERT INTO users VALUES (1, 10.5), (2, 7)",
			want:   [][]any{{int64(1), 10.0}, {int64(2), 7.0}},
		},
		{
			name:   "text into integer column",
			source: "CREATE TABLE desired (id INTEGER PRIMARY KEY, v TEXT); INSERT INTO desired VALUES (1, 'B9'), (2, '8')",
			target: "CREATE TABLE users (id INTEGER PRIMARY KEY, v INTEGER); INSERT INTO users VALUES (1, 9), (2, 8)",
			want:   [][]any{{int64(1), "B9"}, {int64(2), "8"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := setupSQLite(t)
			for _, stmt := range strings.Split(tt.source+"; "+tt.target, "; ") {
				require.NoError(t, db.Exec(stmt).Error)
			}

			s, err := reconcile.New(New(db, "desired"), New(db, "users"), []string{"id"}, reconcile.Options{})
			require.NoError(t, err)

			result, err := s.Apply(ctx, nil, false)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Report.Updated)
			assert.Equal(t, tt.want, records(t, db, "users"))

			summary, err := s.Summary(ctx)
			require.NoError(t, err)
			assert.Equal(t, reconcile.Summary{UnchangedCount: 2}, summary)
		})
	}
}

func TestTable_StrictDatabaseRefusesValuesOutsideColumnType(t *testing.T) {
	for _, v := range []any{10.5, "B9"} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			db, mock := setupMockDB(t)
			expectColumns(mock)
			mock.ExpectBegin()
			mock.ExpectRollback()

			cols := []string{"id", "name", "amount"}
			source, err := dataset.FromRecords(cols, [][]any{{1, "Alice", v}})
			require.NoError(t, err)
			target, err := dataset.FromRecords(cols, [][]any{{1, "Alice", 10}})
			require.NoError(t, err)
			cs, err := reconcile.DiffDatasets(context.Background(), source, target, []string{"id"}, reconcile.Options{})
			require.NoError(t, err)
			require.Len(t, cs.Updates(), 1)

			_, err = reconcile.Apply(context.Background(), cs, nil, New(db, "users"), reconcile.ApplyOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, reconcile.ErrSchemaMismatch)
			assert.ErrorContains(t, err, `column "amount"`)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReadType(t *testing.T) {
	assert.Equal(t, dataset.TypeInt, readType(dataset.TypeInt, []any{int64(1), []byte("2"), nil}))
	assert.Equal(t, dataset.TypeFloat, readType(dataset.TypeInt, []any{int64(1), 10.5}))
	assert.Equal(t, dataset.TypeFloat, readType(dataset.TypeInt, []any{[]byte("10.5")}))
	assert.Equal(t, dataset.TypeString, readType(dataset.TypeInt, []any{int64(9), "B9"}))
	assert.Equal(t, dataset.TypeString, readType(dataset.TypeBool, []any{true, int64(5), 2.5}))
}

func TestTable_InsertsOnly(t *testing.T) {
	db := setupSQLite(t)
	seed(t, db, "desired", "(1,'Alice',11)", "(3,'Charlie',30)")
	seed(t, db, "users", "(1,'Alice',10)", "(5,'Eve',50)")

	s, err := reconcile.New(New(db, "desired"), New(db, "users"), []string{"id"}, reconcile.Options{})
	require.NoError(t, err)

	_, err = s.ApplyInsertsOnly(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]any{
		{int64(1), "Alice", int64(10)},
		{int64(3), "Charlie", int64(30)},
		{int64(5), "Eve", int64(50)},
	}, records(t, db, "users"))
}

func TestTable_TargetOnlyColumnsUntouched(t *testing.T) {
	db := setupSQLite(t)
	seed(t, db, "desired", "(1,'Alice',11)", "(2,'Bob',20)")
	require.NoError(t, db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, amount INTEGER, note TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO users VALUES (1, 10, 'vip')").Error)

	s, err := reconcile.New(New(db, "desired"), New(db, "users"), []string{"id"}, reconcile.Options{})
	require.NoError(t, err)
	_, err = s.Apply(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, [][]any{
		{int64(1), int64(11), "vip"},
		{int64(2), int64(20), nil},
	}, records(t, db, "users"))
}

func TestTable_DryRunWritesNothing(t *testing.T) {
	db := setupSQLite(t)
	seed(t, db, "desired", "(1,'Alice',11)")
	seed(t, db, "users", "(1,'Alice',10)", "(2,'Bob',20)")

	s, err := reconcile.New(New(db, "desired"), New(db, "users"), []string{"id"}, reconcile.Options{})
	require.NoError(t, err)
	result, err := s.Apply(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Counts.Pending())

	assert.Equal(t, [][]any{
		{int64(1), "Alice", int64(10)},
		{int64(2), "Bob", int64(20)},
	}, records(t, db, "users"))
}

// scenarioChangeSet diffs the usual source against a two-row target.
func scenarioChangeSet(t *testing.T) *reconcile.ChangeSet {
	t.Helper()
	cols := []string{"id", "name", "amount"}
	source, err := dataset.FromRecords(cols, [][]any{{1, "Alice", 10}, {3, "Charlie", 30}})
	require.NoError(t, err)
	target, err := dataset.FromRecords(cols, [][]any{{1, "Alice", 9}, {5, "Eve", 50}})
	require.NoError(t, err)

	cs, err := reconcile.DiffDatasets(context.Background(), source, target, []string{"id"}, reconcile.Options{})
	require.NoError(t, err)
	return cs
}

func expectColumns(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SHOW COLUMNS FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("id", "int(11)", "NO", "PRI", nil, "").
			AddRow("name", "varchar(64)", "YES", "", nil, "").
			AddRow("amount", "int(11)", "YES", "", nil, ""))
}

func TestTable_FailedInsertRollsBackEverything(t *testing.T) {
	db, mock := setupMockDB(t)
	expectColumns(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE `id` IN (?)")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`id`,`name`,`amount`) VALUES (?,?,?)")).
		WithArgs(int64(3), "Charlie", int64(30)).
		WillReturnError(fmt.Errorf("duplicate entry"))
	mock.ExpectRollback()

	_, err := reconcile.Apply(context.Background(), scenarioChangeSet(t), nil, New(db, "users"), reconcile.ApplyOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrBackendIO)

	var ioErr *reconcile.BackendIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "insert", ioErr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_AtomicWritesCommitOnce(t *testing.T) {
	db, mock := setupMockDB(t)
	expectColumns(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE `id` IN (?)")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`id`,`name`,`amount`) VALUES (?,?,?)")).
		WithArgs(int64(3), "Charlie", int64(30)).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `users` SET `name` = ?, `amount` = ? WHERE `id` = ?")).
		WithArgs("Alice", int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := reconcile.Apply(context.Background(), scenarioChangeSet(t), nil, New(db, "users"), reconcile.ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Report.Deleted)
	assert.Equal(t, 1, result.Report.Inserted)
	assert.Equal(t, 1, result.Report.Updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_PerPartitionCommitReportsPartialFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	expectColumns(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE `id` IN (?)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(fmt.Errorf("lock wait timeout"))
	mock.ExpectRollback()

	_, err := reconcile.Apply(context.Background(), scenarioChangeSet(t), nil,
		New(db, "users", WithPerPartitionCommit()), reconcile.ApplyOptions{})
	require.ErrorIs(t, err, reconcile.ErrPartialApply)

	var partial *reconcile.PartialApplyFailure
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []reconcile.Operation{reconcile.OpDelete}, partial.Committed)
	assert.Equal(t, reconcile.OpInsert, partial.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_CompositeKeyWithNull(t *testing.T) {
	db, mock := setupMockDB(t)
	tx := db.Session(&gorm.Session{})
	where, args := keyPredicate(tx, []string{"region", "id"}, dataset.Row{"region": nil, "id": int64(7)})
	assert.Equal(t, "`region` IS NULL AND `id` = ?", where)
	assert.Equal(t, []any{int64(7)}, args)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnType(t *testing.T) {
	tests := map[string]dataset.ColumnType{
		"int(11)":       dataset.TypeInt,
		"bigint":        dataset.TypeInt,
		"INTEGER":       dataset.TypeInt,
		"tinyint(1)":    dataset.TypeBool,
		"boolean":       dataset.TypeBool,
		"double":        dataset.TypeFloat,
		"decimal(10,2)": dataset.TypeFloat,
		"real":          dataset.TypeFloat,
		"varchar(255)":  dataset.TypeString,
		"datetime":      dataset.TypeString,
		"":              dataset.TypeString,
	}
	for sqlType, want := range tests {
		assert.Equal(t, want, columnType(sqlType), sqlType)
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		raw  any
		typ  dataset.ColumnType
		want any
	}{
		{[]byte("42"), dataset.TypeInt, int64(42)},
		{[]byte("10.50"), dataset.TypeFloat, 10.5},
		{[]byte("1"), dataset.TypeBool, true},
		{int64(0), dataset.TypeBool, false},
		{int64(3), dataset.TypeFloat, 3.0},
		{[]byte("hi"), dataset.TypeString, "hi"},
		{int64(5), dataset.TypeString, "5"},
		{nil, dataset.TypeInt, nil},
	}
	for _, tt := range tests {
		got, err := cellValue(tt.raw, tt.typ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := cellValue([]byte("abc"), dataset.TypeInt)
	assert.Error(t, err)
}
