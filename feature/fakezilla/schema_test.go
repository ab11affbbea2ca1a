package fakezilla

import (
	"testing"

	"bugsync/core/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSchema(t *testing.T) {
	t.Run("Migrated", func(t *testing.T) {
		store := newTestStore(t)

		report, err := CheckSchema(store.DB())
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Len(t, report.Tables, 3)
		assert.Equal(t, "ok", report.Tables["bugs"].Status)
	})

	t.Run("Drifted", func(t *testing.T) {
		db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
		require.NoError(t, err)
		require.NoError(t, db.Exec("CREATE TABLE bugs (id integer primary key, doc integer)").Error)

		report, err := CheckSchema(db)
		require.NoError(t, err)
		assert.False(t, report.Matched)

		bugs := report.Tables["bugs"]
		assert.Equal(t, "error", bugs.Status)
		assert.ElementsMatch(t, []string{"created_at", "updated_at"}, bugs.MissingColumns)
		require.Len(t, bugs.TypeMismatches, 1)
		assert.Contains(t, bugs.TypeMismatches[0], "doc")

		assert.Contains(t, report.Tables["comments"].MissingColumns, "bug_id")
	})

	t.Run("Nil DB", func(t *testing.T) {
		_, err := CheckSchema(nil)
		assert.Error(t, err)
	})
}

func TestCompatible(t *testing.T) {
	assert.True(t, compatible("bigint", "bigint(20)"))
	assert.True(t, compatible("longtext", "text"))
	assert.False(t, compatible("longtext", "integer"))
	assert.False(t, compatible("bigint", "varchar(255)"))
}
