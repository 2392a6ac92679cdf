package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/places-collector/internal/model"
)

func sampleEntities() []model.Entity {
	e := model.NewEntity("gp_abc123", model.Record{
		Source:           model.SourceGoogle,
		ProviderID:       "abc123",
		Name:             "Pistol Creek West Boot Store",
		FormattedAddress: "4350 St Andrews Rd, Columbia, SC 29210",
		City:             "Columbia",
		State:            "SC",
		ZipCode:          "29210",
		Latitude:         model.Ptr(34.06),
		Longitude:        model.Ptr(-81.16),
		Rating:           model.Ptr(4.4),
		ReviewCount:      model.Ptr(210),
	})
	e.Sources = append(e.Sources, model.SourceYelp)
	e.ProviderIDs[model.SourceYelp] = "pistol-creek-west"
	e.Ratings[model.SourceYelp] = model.Rating{Value: model.Ptr(4.5)}
	e.Categories = []string{"Western Wear", "Shoe Stores"}

	bare := model.NewEntity("hash_0011aabb", model.Record{Source: model.SourceOSM, Name: "Tack, \"Barn\""})
	return []model.Entity{*e, *bare}
}

func TestRow(t *testing.T) {
	t.Parallel()

	row := Row(sampleEntities()[0])
	require.Len(t, row, len(Header))
	assert.Equal(t, "gp_abc123", row[0])
	assert.Equal(t, "34.06", row[6])
	assert.Equal(t, "4.4", row[10])
	assert.Equal(t, "210", row[11])
	assert.Equal(t, "4.5", row[12])
	assert.Equal(t, "", row[13])
	assert.Equal(t, "pistol-creek-west", row[15])
	assert.Equal(t, "Western Wear; Shoe Stores", row[17])
	assert.Equal(t, "google_places; yelp", row[18])
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleEntities()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, `Tack, "Barn"`, records[2][1])
	assert.Equal(t, "", records[2][6])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleEntities()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Pistol Creek West Boot Store", sheet.Rows[1].Cells[1].String())

	lat, err := sheet.Rows[1].Cells[6].Float()
	require.NoError(t, err)
	assert.InDelta(t, 34.06, lat, 1e-9)

	reviews, err := sheet.Rows[1].Cells[11].Int()
	require.NoError(t, err)
	assert.Equal(t, 210, reviews)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "entities.csv")
	require.NoError(t, WriteFile(csvPath, FormatCSV, sampleEntities()))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gp_abc123")

	require.NoError(t, WriteFile(filepath.Join(dir, "entities.xlsx"), FormatXLSX, sampleEntities()))

	err = WriteFile(filepath.Join(dir, "entities.txt"), Format("txt"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
