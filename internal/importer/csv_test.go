package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestReadInventoryCSV(t *testing.T) {
	input := `Name,Quantity,Unit,Purchase_Date,Expiration_Date,Frozen
Milk,2,l,2025-03-08,2025-03-15,
Butter,1,block,,,true
,3,,,,
Eggs,zero,,,,
Flour,-1,kg,,,
Yogurt,4,cup,03/08/2025,,
`

	rows, rowErrs, err := ReadInventoryCSV(strings.NewReader(input), testNow)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Milk", rows[0].Name)
	assert.Equal(t, 2, rows[0].Line)
	assert.InDelta(t, 2.0, rows[0].Quantity, 1e-9)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), rows[0].PurchaseDate)
	require.NotNil(t, rows[0].ExpirationDate)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), *rows[0].ExpirationDate)

	assert.Equal(t, "Butter", rows[1].Name)
	assert.Equal(t, testNow, rows[1].PurchaseDate, "missing purchase date defaults to now")
	assert.Nil(t, rows[1].ExpirationDate)
	assert.True(t, rows[1].Frozen)

	lines := make([]int, 0, len(rowErrs))
	for _, re := range rowErrs {
		lines = append(lines, re.Line)
	}
	assert.Equal(t, []int{4, 5, 6, 7}, lines)
	assert.Contains(t, rowErrs[3].Error(), "line 7: purchase_date")
}

func TestReadInventoryCSV_Header(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty"},
		{name: "missing quantity", input: "name,unit\nmilk,l\n", wantErr: "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadInventoryCSV(strings.NewReader(tt.input), testNow)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadEventsCSV(t *testing.T) {
	input := `name,quantity,occurred_at
milk,1,2025-03-09T08:30:00Z
milk,0.5,2025-03-10
bread,,2025-03-10
eggs,2,
`

	rows, rowErrs, err := ReadEventsCSV(strings.NewReader(input), time.UTC)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC), rows[0].OccurredAt)
	assert.InDelta(t, 0.5, rows[1].Quantity, 1e-9)
	require.Len(t, rowErrs, 2)
	assert.Equal(t, 4, rowErrs[0].Line)
	assert.Equal(t, 5, rowErrs[1].Line)

	_, _, err = ReadEventsCSV(strings.NewReader("name,quantity\nmilk,1\n"), time.UTC)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)

	got, err := ParseDate("2025-03-10", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())

	got, err = ParseDate("2025-03-10T10:00:00-05:00", time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)))

	_, err = ParseDate("tomorrow", loc)
	assert.Error(t, err)
}
