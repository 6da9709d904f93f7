package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDisabledIsNoop(t *testing.T) {
	var c Config
	require.NoError(t, c.Normalize())
	require.Empty(t, c.Port)
}

func TestNormalizeDefaults(t *testing.T) {
	c := Config{Enabled: true, Host: "db", Name: "quotes", User: "bot"}
	require.NoError(t, c.Normalize())
	require.Equal(t, "5432", c.Port)
	require.Equal(t, "disable", c.SSLMode)
	require.Equal(t, 4, c.MaxConnections)
	require.Equal(t, "migrations", c.MigrationsDir)

	require.Error(t, (&Config{Enabled: true, Host: "db"}).Normalize())
}

func TestDSNAndURL(t *testing.T) {
	c := Config{Host: "db", Port: "5432", User: "bot", Password: "p a'ss", Name: "quotes", SSLMode: "disable"}
	require.Equal(t, `user=bot password='p a\'ss' host=db port=5432 dbname=quotes sslmode=disable`, c.DSN())

	c.Password = "secret"
	require.Equal(t, "postgres://bot:secret@db:5432/quotes?sslmode=disable", c.URL())

	c.Password = ""
	require.Contains(t, c.DSN(), "password='' ")
}

func TestAppliedBetween(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "0003_c.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o600))
	}
	files := upFiles(dir)
	require.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}, files)
	require.Equal(t, []string{"0002_b.up.sql", "0003_c.up.sql"}, appliedBetween(files, 1, 3))
	require.Empty(t, appliedBetween(files, 3, 3))
	require.Nil(t, upFiles(filepath.Join(dir, "missing")))
}
