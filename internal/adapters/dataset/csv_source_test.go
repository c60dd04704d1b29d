package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/pkg/config"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

const sampleCSV = `,name,stars,state_name,city,cat_kitchen,cat_type,PriceRange,latitude,longitude
0,Pizzeria Bianco,4.5,Arizona,Phoenix,Italian,Restaurant,$$,33.4492,-112.0657
1,"Lou Malnati's, Lincoln Park",4.0,Illinois,Chicago,Italian,Restaurant,$$,41.9206,-87.6485
2,Tacos Chiwas,4.0,Arizona,Phoenix,Mexican,Restaurant,,33.4671,-112.0521
`

func TestParseCSV(t *testing.T) {
	restaurants, err := ParseCSV([]byte(sampleCSV))
	require.NoError(t, err)
	require.Len(t, restaurants, 3)

	assert.Equal(t, entities.Restaurant{
		Name:       "Pizzeria Bianco",
		Stars:      4.5,
		State:      "Arizona",
		City:       "Phoenix",
		Kitchen:    "Italian",
		Type:       "Restaurant",
		PriceRange: entities.PriceModerate,
		Latitude:   33.4492,
		Longitude:  -112.0657,
	}, *restaurants[0])
	assert.Equal(t, "Lou Malnati's, Lincoln Park", restaurants[1].Name)
	assert.Equal(t, entities.PriceUnknown, restaurants[2].PriceRange)
}

func TestParseCSV_ColumnOrderAndBOM(t *testing.T) {
	data := "\xEF\xBB\xBFlongitude,latitude,PriceRange,cat_type,cat_kitchen,city,state_name,stars,name\n" +
		"-115.17,36.12,$$$$,Restaurant,French,Las Vegas,Nevada,4.5,Joel Robuchon\n"

	restaurants, err := ParseCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Joel Robuchon", restaurants[0].Name)
	assert.Equal(t, -115.17, restaurants[0].Longitude)
	assert.Equal(t, entities.PriceLuxury, restaurants[0].PriceRange)
}

func TestParseCSV_Windows1252(t *testing.T) {
	// "Café" with 0xE9 for é
	data := []byte("name,stars,state_name,city,cat_kitchen,cat_type,PriceRange,latitude,longitude\n" +
		"Caf\xE9 Sol,3.5,Arizona,Tempe,Cafes,Cafe,$,33.42,-111.94\n")

	restaurants, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Café Sol", restaurants[0].Name)
}

func TestParseCSV_Errors(t *testing.T) {
	header := "name,stars,state_name,city,cat_kitchen,cat_type,PriceRange,latitude,longitude\n"

	tests := []struct {
		name    string
		data    string
		message string
	}{
		{"empty file", "", "CSV is empty"},
		{"missing columns", "name,stars,state_name\nA,1,B\n", "missing columns: city, cat_kitchen, cat_type, PriceRange, latitude, longitude"},
		{"malformed latitude", header + "A,4,AZ,Phoenix,Thai,Restaurant,$,north,-112\n", `line 2: malformed latitude "north"`},
		{"missing longitude", header + "A,4,AZ,Phoenix,Thai,Restaurant,$,33.4,\n", "line 2: missing longitude"},
		{"missing stars", header + "A,4,AZ,Phoenix,Thai,Restaurant,$,33.4,-112\nB,,AZ,Phoenix,Thai,Restaurant,$,33.4,-112\n", "line 3: missing stars"},
		{"nan stars", header + "A,NaN,AZ,Phoenix,Thai,Restaurant,$,33.4,-112\n", `malformed stars "NaN"`},
		{"unknown price", header + "A,4,AZ,Phoenix,Thai,Restaurant,cheap,33.4,-112\n", `unknown PriceRange "cheap"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV([]byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrorTypeInvalidData, apperrors.TypeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCSVSource_LoadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	restaurants, err := NewCSVSource(path).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, restaurants, 3)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).LoadAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInvalidData, apperrors.TypeOf(err))
}

func TestOpen_CSV(t *testing.T) {
	cfg := &config.Config{Dataset: config.DatasetConfig{Source: config.SourceCSV, Path: "data/data.csv"}}

	source, closeFn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, source)
	assert.NoError(t, closeFn())

	_, _, err = Open(context.Background(), &config.Config{Dataset: config.DatasetConfig{Source: "excel"}})
	assert.Error(t, err)
}
