package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_DropsCommentsAndBlanks(t *testing.T) {
	sql := `-- header comment
CREATE TABLE a (id INT);

  -- indented comment
INSERT INTO a VALUES (1);
;`
	got := Statements(sql)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "INSERT INTO a VALUES (1)"}, got)
}

func TestStatements_EmbeddedSchema(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 1)

	stmts := Statements(all[0].SQL)
	require.Len(t, stmts, 3)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS scan_records"))
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE INDEX"))
	assert.True(t, strings.HasPrefix(stmts[2], "INSERT INTO scan_records"))
}
