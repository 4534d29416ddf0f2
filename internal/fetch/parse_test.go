package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Valid(t *testing.T) {
	rec, ok := ParseLine("24;03;15;14;30;05;M1;23.4;51;412;")
	require.True(t, ok)

	assert.Equal(t, time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, "M1", rec.Module)
	assert.Equal(t, []string{"23.4", "51", "412"}, rec.Values)
	assert.Equal(t, "24;03;15;14;30;05;M1;23.4;51;412;", rec.Line)
}

func TestParseLine_KeepsInnerEmptyValues(t *testing.T) {
	rec, ok := ParseLine("24;03;15;14;30;05;M1;23.4;;412")
	require.True(t, ok)
	assert.Equal(t, []string{"23.4", "", "412"}, rec.Values)
}

func TestParseLine_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"api error":    "There is no data.",
		"too short":    "24;03;15;14;30;05;M1",
		"bad number":   "24;xx;15;14;30;05;M1;1",
		"invalid date": "24;02;30;14;30;05;M1;1",
		"invalid hour": "24;02;10;25;30;05;M1;1",
		"free text":    "hello world",
	}

	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseLine(line)
			assert.False(t, ok)
		})
	}
}

func TestParseBody_PreservesOrderAndSkipsGarbage(t *testing.T) {
	body := "24;03;15;14;40;00;M1;2;\r\n" +
		"garbage line\n" +
		"\n" +
		"24;03;15;14;30;00;M1;1;\n"

	records, skipped, err := ParseBody(body)
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, records, 2)
	assert.True(t, records[0].Timestamp.After(records[1].Timestamp))
	assert.Equal(t, []string{"2"}, records[0].Values)
}

func TestParseBody_APIError(t *testing.T) {
	_, _, err := ParseBody("Device does not exist.\n")
	require.Error(t, err)
	assert.Equal(t, "API reported: Device does not exist.", err.Error())
}

func TestParseBody_Empty(t *testing.T) {
	records, skipped, err := ParseBody("  \n")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, skipped)
}

func TestParseBody_AllMalformed(t *testing.T) {
	_, skipped, err := ParseBody("<html>oops</html>")
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Equal(t, 1, skipped)
}
