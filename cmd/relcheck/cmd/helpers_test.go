package cmd

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const (
	lightL1 = "f9158a1d-a1bf-4110-b964-6b25abc0e143"
	lightL2 = "0b7b1c2d-3e4f-4a5b-8c6d-7e8f9a0b1c2d"
	spanS1  = "aaaaaaaa-0000-4000-8000-000000000001"
)

const testConfigTemplate = `
source:
  driver: sqlite
  path: %s

tables:
  - name: Lys
  - name: OverettlinjeLys

relationships:
  - name: OverettlinjeLys
    source_table: OverettlinjeLys
    target_table: Lys
    key_field: FKNavInst1
  - name: OverettlinjeLys2
    source_table: OverettlinjeLys
    target_table: Lys
    key_field: FKNavInst2

probes:
  - name: span-s1
    table: OverettlinjeLys
    field: globalid
    value: "{AAAAAAAA-0000-4000-8000-000000000001}"

logging:
  level: error
  output: stderr
`

// createTestGeodatabase writes a SQLite file with two lights and one span
// referencing both of them through different key fields. Braced upper-case
// keys exercise GUID normalization.
func createTestGeodatabase(t *testing.T, duplicateLight bool) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.geodatabase")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE Lys (globalid TEXT, Navn TEXT)`,
		`CREATE TABLE OverettlinjeLys (globalid TEXT, FKNavInst1 TEXT, FKNavInst2 TEXT)`,
		fmt.Sprintf(`INSERT INTO Lys VALUES ('%s', 'L1')`, lightL1),
		fmt.Sprintf(`INSERT INTO Lys VALUES ('%s', 'L2')`, lightL2),
		fmt.Sprintf(`INSERT INTO OverettlinjeLys VALUES ('%s', '{F9158A1D-A1BF-4110-B964-6B25ABC0E143}', '{0B7B1C2D-3E4F-4A5B-8C6D-7E8F9A0B1C2D}')`, spanS1),
	}
	if duplicateLight {
		stmts = append(stmts, fmt.Sprintf(`INSERT INTO Lys VALUES ('%s', 'L1 copy')`, lightL1))
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

// setupCommandTest points the CLI at a fresh config and database and captures
// report output. Global flag state is restored on cleanup.
func setupCommandTest(t *testing.T, duplicateLight bool) *bytes.Buffer {
	t.Helper()

	dbFile := createTestGeodatabase(t, duplicateLight)
	configPath := filepath.Join(t.TempDir(), "relcheck.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(testConfigTemplate, dbFile)), 0644))

	originalCfgFile, originalNoColor := cfgFile, noColor
	cfgFile = configPath
	noColor = true

	var buf bytes.Buffer
	setOutputWriter(&buf)

	t.Cleanup(func() {
		cfgFile = originalCfgFile
		noColor = originalNoColor
		resetOutputWriter()
	})
	return &buf
}
