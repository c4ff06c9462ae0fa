package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.xlsx")

	header := []string{"Text", "Participant Name"}
	rows := [][]string{
		{"Ravi Kumar secured 1st Position in Basketball during 2012 championship.", "Ravi Kumar"},
		{"", ""},
		{"José won Gold in Fútbol.", "José"},
	}
	require.Nil(t, WriteTable(path, "Result", header, rows))

	texts, err := ReadColumn(path, "Result", 0, true)
	require.Nil(t, err)
	assert.Equal(t, []string{rows[0][0], "", rows[2][0]}, texts)

	names, err := ReadColumn(path, "", 1, false)
	require.Nil(t, err)
	assert.Equal(t, "Participant Name", names[0])
	assert.Equal(t, "José", names[3])

	// full overwrite
	require.Nil(t, WriteTable(path, "Result", header, rows[:1]))
	texts, err = ReadColumn(path, "Result", 0, true)
	require.Nil(t, err)
	assert.Len(t, texts, 1)
}

func TestReadColumn_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadColumn(filepath.Join(dir, "missing.xlsx"), "Sheet1", 0, true)
	assert.NotNil(t, err)

	path := filepath.Join(dir, "in.xlsx")
	require.Nil(t, WriteTable(path, "", []string{"Text"}, [][]string{{"a"}}))

	_, err = ReadColumn(path, "Nope", 0, true)
	assert.NotNil(t, err)

	_, err = ReadColumn(path, "", -1, true)
	assert.NotNil(t, err)

	texts, err := ReadColumn(path, "Sheet1", 0, true)
	require.Nil(t, err)
	assert.Equal(t, []string{"a"}, texts)
}
