package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dbsmedya/relcheck/internal/config"
	"github.com/dbsmedya/relcheck/internal/logger"
	"github.com/dbsmedya/relcheck/internal/sqlutil"
)

func newMockLoader(t *testing.T, dialect sqlutil.Dialect) (*Loader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loader, err := NewLoader(db, dialect, logger.NewNop())
	require.NoError(t, err)
	return loader, mock
}

func TestNewLoader_NilDB(t *testing.T) {
	_, err := NewLoader(nil, sqlutil.DialectSQLite, nil)
	assert.Error(t, err)
}

func TestLoadTable_SQLite(t *testing.T) {
	loader, mock := newMockLoader(t, sqlutil.DialectSQLite)

	rows := sqlmock.NewRows([]string{"OBJECTID", "GlobalID", "Navn", "SHAPE"}).
		AddRow(int64(1), "{F9158A1D-A1BF-4110-B964-6B25ABC0E143}", []byte("Fyr"), []byte{0xff, 0x00, 0x01}).
		AddRow(int64(2), "{946AAA97-DE68-48D2-B259-5E955F1693D9}", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "Lys"`)).WillReturnRows(rows)

	tbl, err := loader.LoadTable(context.Background(), config.TableConfig{Name: "Lys"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "Lys", tbl.Name)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"OBJECTID", "GlobalID", "Navn", "SHAPE"}, tbl.Columns)

	first := tbl.Lookup("f9158a1d-a1bf-4110-b964-6b25abc0e143")
	require.Len(t, first, 1)

	name, _ := first[0].Get("navn")
	assert.Equal(t, "Fyr", name, "text bytes become strings")
	shape, _ := first[0].Get("SHAPE")
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, shape, "binary stays bytes")
}

func TestLoadTable_MySQLWithWhere(t *testing.T) {
	loader, mock := newMockLoader(t, sqlutil.DialectMySQL)

	rows := sqlmock.NewRows([]string{"globalid", "FKNavinst1"}).AddRow("S1", "X")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `OverettlinjeLys` WHERE FKNavinst1 IS NOT NULL")).
		WillReturnRows(rows)

	tbl, err := loader.LoadTable(context.Background(), config.TableConfig{
		Name:  "OverettlinjeLys",
		Where: "FKNavinst1 IS NOT NULL",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTable_BinaryGUIDColumns(t *testing.T) {
	loader, mock := newMockLoader(t, sqlutil.DialectMySQL)

	// Every byte is printable ASCII, so only the column type marks these as GUIDs.
	light := []byte("ABCDEFGHIPQRSTUV")
	span := []byte("0123456789abcdef")

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("globalid").OfType("BINARY", []byte{}),
		sqlmock.NewColumn("FKNavinst1").OfType("VARBINARY", []byte{}),
		sqlmock.NewColumn("Navn").OfType("VARCHAR", []byte{}),
	).AddRow(span, light, []byte("Fyr"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `OverettlinjeLys`")).WillReturnRows(rows)

	tbl, err := loader.LoadTable(context.Background(), config.TableConfig{Name: "OverettlinjeLys"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, 1, tbl.Len())

	rec := tbl.Records()[0]
	assert.Equal(t, "30313233-3435-3637-3839-616263646566", rec.GlobalID())
	assert.Equal(t, "41424344-4546-4748-4950-515253545556", rec.Key("FKNavinst1"))

	fk, _ := rec.Get("FKNavinst1")
	assert.Equal(t, light, fk, "binary columns stay bytes")
	name, _ := rec.Get("Navn")
	assert.Equal(t, "Fyr", name, "text columns become strings")
}

func TestLoadSnapshot_SQLiteBlobGUIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdb.geodatabase")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE Lys (globalid BLOB, Navn TEXT)`,
		`CREATE TABLE OverettlinjeLys (globalid TEXT, FKNavInst1 BLOB)`,
		`INSERT INTO Lys VALUES (X'41424344454647484950515253545556', 'Nedre')`,
		`INSERT INTO OverettlinjeLys VALUES ('{0D3C2E0B-7C39-4E53-9E0C-3D1F0E5B9A11}', X'41424344454647484950515253545556')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	loader, err := NewLoader(db, sqlutil.DialectSQLite, logger.NewNop())
	require.NoError(t, err)

	snap, err := loader.LoadSnapshot(context.Background(), []config.TableConfig{
		{Name: "Lys"},
		{Name: "OverettlinjeLys"},
	})
	require.NoError(t, err)

	overett, err := snap.Table("OverettlinjeLys")
	require.NoError(t, err)
	key := overett.Records()[0].Key("FKNavInst1")
	assert.Equal(t, "41424344-4546-4748-4950-515253545556", key)

	lys, err := snap.Table("Lys")
	require.NoError(t, err)
	matches := lys.Lookup(key)
	require.Len(t, matches, 1)
	name, _ := matches[0].Get("Navn")
	assert.Equal(t, "Nedre", name)
}

func TestIsBinaryType(t *testing.T) {
	for _, name := range []string{"BINARY", "VARBINARY", "BLOB", "LONGBLOB", "blob"} {
		assert.True(t, isBinaryType(name), name)
	}
	for _, name := range []string{"", "TEXT", "VARCHAR", "GUID", "INTEGER"} {
		assert.False(t, isBinaryType(name), name)
	}
}

func TestLoadTable_MissingIDColumn(t *testing.T) {
	loader, mock := newMockLoader(t, sqlutil.DialectSQLite)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "Lys"`)).
		WillReturnRows(sqlmock.NewRows([]string{"OBJECTID"}).AddRow(int64(1)))

	_, err := loader.LoadTable(context.Background(), config.TableConfig{Name: "Lys", GlobalIDField: "GUID"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingIDColumn))
}

func TestLoadTable_InvalidName(t *testing.T) {
	loader, _ := newMockLoader(t, sqlutil.DialectSQLite)

	_, err := loader.LoadTable(context.Background(), config.TableConfig{Name: "Lys; DROP TABLE Lys"})
	require.Error(t, err)

	var invalid *sqlutil.InvalidIdentifierError
	assert.ErrorAs(t, err, &invalid)
}

func TestLoadTable_QueryError(t *testing.T) {
	loader, mock := newMockLoader(t, sqlutil.DialectSQLite)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "Lys"`)).WillReturnError(sql.ErrConnDone)

	_, err := loader.LoadTable(context.Background(), config.TableConfig{Name: "Lys"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
}

func TestLoadSnapshot_StopsOnCancelledContext(t *testing.T) {
	loader, _ := newMockLoader(t, sqlutil.DialectSQLite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.LoadSnapshot(ctx, []config.TableConfig{{Name: "Lys"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadSnapshot_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdb.geodatabase")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE Lys (OBJECTID INTEGER PRIMARY KEY, globalid TEXT, Navn TEXT)`,
		`CREATE TABLE OverettlinjeLys (OBJECTID INTEGER PRIMARY KEY, globalid TEXT, FKNavInst1 TEXT, FKNavInst2 TEXT)`,
		`INSERT INTO Lys VALUES (1, '{F9158A1D-A1BF-4110-B964-6B25ABC0E143}', 'Nedre')`,
		`INSERT INTO Lys VALUES (2, '{946AAA97-DE68-48D2-B259-5E955F1693D9}', 'Øvre')`,
		`INSERT INTO OverettlinjeLys VALUES (1, '{0D3C2E0B-7C39-4E53-9E0C-3D1F0E5B9A11}',
			'{F9158A1D-A1BF-4110-B964-6B25ABC0E143}', '{946AAA97-DE68-48D2-B259-5E955F1693D9}')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	loader, err := NewLoader(db, sqlutil.DialectSQLite, logger.NewNop())
	require.NoError(t, err)

	snap, err := loader.LoadSnapshot(context.Background(), []config.TableConfig{
		{Name: "Lys"},
		{Name: "OverettlinjeLys"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lys", "OverettlinjeLys"}, snap.Names())

	overett, err := snap.Table("OverettlinjeLys")
	require.NoError(t, err)
	require.Equal(t, 1, overett.Len())

	rec := overett.Records()[0]
	assert.Equal(t, "f9158a1d-a1bf-4110-b964-6b25abc0e143", rec.Key("FKNavinst1"))
	assert.Equal(t, "946aaa97-de68-48d2-b259-5e955f1693d9", rec.Key("FKNavinst2"))

	lys, err := snap.Table("Lys")
	require.NoError(t, err)
	lower := lys.Lookup(rec.Key("FKNavinst2"))
	require.Len(t, lower, 1)
	name, _ := lower[0].Get("Navn")
	assert.Equal(t, "Øvre", name)
}
