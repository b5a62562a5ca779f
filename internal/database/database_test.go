package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   uint
	Name string
}

func TestMemoryDSN_Unique(t *testing.T) {
	assert.NotEqual(t, MemoryDSN(), MemoryDSN())
}

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "db.local")
	viper.Set("db.port", "5433")
	viper.Set("db.username", "u")
	viper.Set("db.password", "p")
	viper.Set("db.database", "annotations")

	assert.Equal(t, "host=db.local port=5433 user=u password=p dbname=annotations sslmode=disable", PostgresDSN())
}

func TestGetSqliteDB_MemoryIsolated(t *testing.T) {
	a, err := GetSqliteDB("")
	require.NoError(t, err)
	b, err := GetSqliteDB("")
	require.NoError(t, err)

	require.NoError(t, a.AutoMigrate(&row{}))
	require.NoError(t, a.Create(&row{Name: "x"}).Error)

	assert.True(t, a.Migrator().HasTable(&row{}))
	assert.False(t, b.Migrator().HasTable(&row{}))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&row{Name: "kept"}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := GetSqliteDB(path)
	require.NoError(t, err)
	var got []row
	require.NoError(t, disk.Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Name)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}
