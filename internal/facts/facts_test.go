package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsNestedSections(t *testing.T) {
	f, err := Parse(`{
		"name": "Jane Doe",
		"skills": ["Go", "SQL"],
		"projects": [{"title": "Chatbot", "technologies": ["Python"]}],
		"experience": [{"company": "Acme Corp", "start_date": "2020"}],
		"publications": [{"title": "On Queues", "year": "2021"}],
		"location": "Berlin"
	}`)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", f.Name)
	assert.Equal(t, []string{"Python"}, f.Projects[0].Technologies)
	assert.Equal(t, "Acme Corp", f.Experience[0].Company)
	assert.Equal(t, "2021", f.Publications[0].Year)
	assert.False(t, f.IsZero())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
	_, err = Parse("not json")
	assert.Error(t, err)
}

func TestScanHandlesNullAndBytes(t *testing.T) {
	var f Facts
	require.NoError(t, f.Scan(nil))
	assert.True(t, f.IsZero())

	require.NoError(t, f.Scan([]byte(`{"skills":["Go"]}`)))
	assert.Equal(t, []string{"Go"}, f.Skills)

	assert.Error(t, f.Scan(42))
}

func TestValueOmitsEmptySections(t *testing.T) {
	v, err := Facts{Location: "Oslo"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"location":"Oslo"}`, v)
}
