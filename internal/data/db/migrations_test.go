package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestMigrateUp_FreshDB(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	rows, err := database.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var versions []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())

	migrations, err := loadMigrations()
	require.NoError(t, err)

	require.Len(t, versions, len(migrations))
	for i, m := range migrations {
		assert.Equal(t, m.Version, versions[i])
	}

	for _, table := range []string{"todos", "processed_messages", "sync_log"} {
		_, err = database.ExecContext(ctx, "SELECT 1 FROM "+table+" LIMIT 0")
		require.NoError(t, err, "%s table should exist", table)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)

	err := database.migrateUp(context.Background())
	assert.NoError(t, err, "second migrateUp should be idempotent")
}

func TestMigrateUp_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	_, err = first.ExecContext(ctx,
		"INSERT INTO processed_messages (scope, message_id, processed_at) VALUES (?, ?, ?)",
		"emails", "<a@b>", 1,
	)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	var count int
	require.NoError(t, second.QueryRowContext(ctx, "SELECT COUNT(*) FROM processed_messages").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx, `
		INSERT INTO todos (channel, id, origin, description, status, created_at)
		VALUES ('chat', 1, 'chat', 'Call investor', 'pending', 1)
	`)
	require.NoError(t, err)

	// Revert todos.message_id and sync_log.
	require.NoError(t, database.MigrateDown(ctx, 2))

	_, err = database.ExecContext(ctx, "SELECT message_id FROM todos LIMIT 0")
	require.Error(t, err, "message_id should not exist after down migration")

	_, err = database.ExecContext(ctx, "SELECT 1 FROM sync_log LIMIT 0")
	require.Error(t, err, "sync_log should not exist after down migration")

	var count int
	err = database.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "todo row should be preserved")

	// Re-applying restores the table.
	require.NoError(t, database.migrateUp(ctx))
	_, err = database.ExecContext(ctx, "SELECT 1 FROM sync_log LIMIT 0")
	require.NoError(t, err)
	_, err = database.ExecContext(ctx, "SELECT message_id FROM todos LIMIT 0")
	require.NoError(t, err)
}

func TestMigrateDown_InvalidN(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	require.Error(t, database.MigrateDown(ctx, 0), "n=0 should fail")
	require.Error(t, database.MigrateDown(ctx, -1), "n=-1 should fail")
}

func TestMigrateDown_TooMany(t *testing.T) {
	database := openTestDB(t)

	migrations, err := loadMigrations()
	require.NoError(t, err)

	err = database.MigrateDown(context.Background(), len(migrations)+1)
	assert.Error(t, err, "requesting more down migrations than applied should fail")
}

func TestTodosCheckConstraint(t *testing.T) {
	database := openTestDB(t)

	_, err := database.ExecContext(context.Background(), `
		INSERT INTO todos (channel, id, origin, description, status, created_at)
		VALUES ('chat', 1, 'chat', 'x', 'completed', 1)
	`)
	assert.Error(t, err, "completed rows require completed_at")
}

func TestLoadMigrations_Valid(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version,
			"migrations should be in ascending version order")
	}

	for _, m := range migrations {
		assert.NotEmpty(t, m.UpSQL, "migration %d up SQL should not be empty", m.Version)
		assert.NotEmpty(t, m.DownSQL, "migration %d down SQL should not be empty", m.Version)
		assert.NotEmpty(t, m.Name, "migration %d name should not be empty", m.Version)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename      string
		wantVersion   int
		wantName      string
		wantDirection string
		wantErr       bool
	}{
		{"0001_todos.up.sql", 1, "todos", "up", false},
		{"0001_todos.down.sql", 1, "todos", "down", false},
		{"0002_sync_log.up.sql", 2, "sync_log", "up", false},
		{"0100_big_version.down.sql", 100, "big_version", "down", false},
		{"bad.sql", 0, "", "", true},
		{"0001_initial.sql", 0, "", "", true},
		{"0000_zero.up.sql", 0, "", "", true},
		{"-1_negative.up.sql", 0, "", "", true},
		{"abc_notnumber.up.sql", 0, "", "", true},
		{"0001_.up.sql", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, direction, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantDirection, direction)
		})
	}
}

func TestRebind(t *testing.T) {
	sqlite := &DB{dialect: DialectSQLite}
	pg := &DB{dialect: DialectPostgres}

	q := "SELECT * FROM todos WHERE channel = ? AND note = '?' AND id = ?"
	assert.Equal(t, q, sqlite.Rebind(q))
	assert.Equal(t, "SELECT * FROM todos WHERE channel = $1 AND note = '?' AND id = $2", pg.Rebind(q))
}
