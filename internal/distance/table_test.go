package distance_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/flightdelay/flightdelay/internal/distance"
	"github.com/flightdelay/flightdelay/internal/tabular"
)

func frame(t *testing.T, csv string) *tabular.Frame {
	t.Helper()
	f, err := tabular.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return f
}

func TestBuild_Symmetric(t *testing.T) {
	table := distance.Build(frame(t, "Origin,Dest,Miles\nLAX,JFK,2475\nsfo , sea,679\n"))
	require.NotNil(t, table)

	tests := []struct {
		origin, dest string
		want         float64
	}{
		{"LAX", "JFK", 2475},
		{"JFK", "LAX", 2475},
		{"SFO", "SEA", 679},
		{"sea", " sfo", 679},
	}
	for _, tt := range tests {
		got, ok := table.Lookup(tt.origin, tt.dest)
		assert.True(t, ok, "%s-%s", tt.origin, tt.dest)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, 2, table.Routes())
	assert.Equal(t, 4, table.Len())
}

func TestBuild_RejectsInvalidRows(t *testing.T) {
	csv := "origin,destination,distance\n" +
		"LAX,JFK,2475\n" +
		"LA,JFK,100\n" + // short code
		"KLAX,JFK,100\n" + // ICAO code
		"SFO,OAK,9\n" + // below range
		"SYD,LAX,7488\n" + // above range
		"BOS,MIA,\n" // missing distance

	table := distance.Build(frame(t, csv))
	require.NotNil(t, table)

	assert.Equal(t, 1, table.Routes())

	_, ok := table.Lookup("SFO", "OAK")
	assert.False(t, ok)
	_, ok = table.Lookup("SYD", "LAX")
	assert.False(t, ok)
	_, ok = table.Lookup("BOS", "MIA")
	assert.False(t, ok)
}

func TestBuild_RangeBoundariesInclusive(t *testing.T) {
	table := distance.Build(frame(t, "origin,dest,miles\nAAA,BBB,10\nCCC,DDD,6000\n"))
	require.NotNil(t, table)

	m, ok := table.Lookup("AAA", "BBB")
	assert.True(t, ok)
	assert.Equal(t, 10.0, m)

	m, ok = table.Lookup("DDD", "CCC")
	assert.True(t, ok)
	assert.Equal(t, 6000.0, m)
}

func TestBuildWithColumns_Resolution(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		wantCols [3]string
		wantRank tabular.Rank
	}{
		{
			name:     "keyword columns skip seq ids",
			csv:      "ORIGIN_SEQ_ID,ORIGIN_AIRPORT_CODE,DEST_AIRPORT_CODE,TOTAL_MILES\n1,LAX,JFK,2475\n",
			wantCols: [3]string{"ORIGIN_AIRPORT_CODE", "DEST_AIRPORT_CODE", "TOTAL_MILES"},
			wantRank: tabular.RankKeyword,
		},
		{
			name:     "heuristic positional fallback",
			csv:      "a,b,route_miles_x\nLAX,JFK,2475\n",
			wantCols: [3]string{"a", "b", "route_miles_x"},
			wantRank: tabular.RankHeuristic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, cols := distance.BuildWithColumns(frame(t, tt.csv))
			require.NotNil(t, table)
			require.NotNil(t, cols)

			assert.Equal(t, tt.wantCols[0], cols.Origin.Name)
			assert.Equal(t, tt.wantCols[1], cols.Destination.Name)
			assert.Equal(t, tt.wantCols[2], cols.Distance.Name)
			assert.Equal(t, tt.wantRank, cols.Origin.Rank)

			m, ok := table.Lookup("JFK", "LAX")
			assert.True(t, ok)
			assert.Equal(t, 2475.0, m)
		})
	}
}

func TestBuild_Unresolvable(t *testing.T) {
	assert.Nil(t, distance.Build(frame(t, "a,b\n1,2\n")))
	assert.Nil(t, distance.Build(nil))
}

func TestTable_NilLookup(t *testing.T) {
	var table *distance.Table
	_, ok := table.Lookup("LAX", "JFK")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Routes())
}

func TestLoadFile(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("missing file", func(t *testing.T) {
		assert.Nil(t, distance.LoadFile(filepath.Join(t.TempDir(), "nope.csv"), logger))
	})

	t.Run("empty path", func(t *testing.T) {
		assert.Nil(t, distance.LoadFile("", logger))
	})

	t.Run("csv on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.csv")
		require.NoError(t, os.WriteFile(path, []byte("from,to,distance\nATL,ORD,606\n"), 0o600))

		table := distance.LoadFile(path, logger)
		require.NotNil(t, table)
		m, ok := table.Lookup("ORD", "ATL")
		assert.True(t, ok)
		assert.Equal(t, 606.0, m)
	})
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "routes.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestLoadFile_Workbook(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"FLIGHT_SEQ", "ORIGIN_AIRPORT", "DESTINATION_AIRPORT", "DISTANCE"},
		{1, "LAX", "JFK", 2475},
		{2, "den", "ord", 888},
		{3, "LAX", "XX", 300},
	})

	f, err := tabular.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())

	table, cols := distance.BuildWithColumns(f)
	require.NotNil(t, table)
	assert.Equal(t, "ORIGIN_AIRPORT", cols.Origin.Name)
	assert.Equal(t, "DESTINATION_AIRPORT", cols.Destination.Name)
	assert.Equal(t, "DISTANCE", cols.Distance.Name)
	assert.Equal(t, 2, table.Routes())

	loaded := distance.LoadFile(path, zerolog.Nop())
	require.NotNil(t, loaded)
	m, ok := loaded.Lookup("jfk", "lax")
	assert.True(t, ok)
	assert.Equal(t, 2475.0, m)

	m, ok = loaded.Lookup("ORD", "DEN")
	assert.True(t, ok)
	assert.Equal(t, 888.0, m)
}
