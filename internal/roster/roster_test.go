package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSenders(t *testing.T) {
	path := writeFile(t, "senders.json", `["+254700000001", "+254700000002"]`)

	senders, err := LoadSenders(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"+254700000001", "+254700000002"}, senders)
}

func TestLoadSenders_MissingFile(t *testing.T) {
	_, err := LoadSenders("does-not-exist.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.json")
}

func TestLoadSenders_BadJSON(t *testing.T) {
	path := writeFile(t, "senders.json", `{"not": "an array"}`)
	_, err := LoadSenders(path)
	require.Error(t, err)
}

func TestLoadRecipients(t *testing.T) {
	path := writeFile(t, "recipients.json", `[
		{"number": "+254712345678", "location": "Kibwezi", "latitude": -2.41, "longitude": 37.96, "name": "Jane", "language": "sw", "format": 3},
		{"number": "+254712345679", "location": "Nairobi", "latitude": -1.29, "longitude": 36.82}
	]`)

	recipients, err := LoadRecipients(path)
	require.NoError(t, err)
	require.Len(t, recipients, 2)

	first := recipients[0]
	assert.Equal(t, "+254712345678", first.Number)
	assert.Equal(t, "Kibwezi", first.Location)
	require.NotNil(t, first.Latitude)
	assert.Equal(t, -2.41, *first.Latitude)
	require.NotNil(t, first.Format)
	assert.Equal(t, 3, *first.Format)

	// Optional fields stay unset so validation can apply defaults.
	second := recipients[1]
	assert.Empty(t, second.Name)
	assert.Empty(t, second.Language)
	assert.Nil(t, second.Format)
}

func TestLoadRecipients_AbsentCoordinatesStayNil(t *testing.T) {
	path := writeFile(t, "recipients.json", `[{"number": "+254712345678", "location": "Kibwezi"}]`)

	recipients, err := LoadRecipients(path)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Nil(t, recipients[0].Latitude)
	assert.Nil(t, recipients[0].Longitude)
}
