package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

// Column names of the restaurant table
const (
	ColumnName      = "name"
	ColumnStars     = "stars"
	ColumnState     = "state_name"
	ColumnCity      = "city"
	ColumnKitchen   = "cat_kitchen"
	ColumnType      = "cat_type"
	ColumnPrice     = "PriceRange"
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
)

var requiredColumns = []string{
	ColumnName, ColumnStars, ColumnState, ColumnCity, ColumnKitchen,
	ColumnType, ColumnPrice, ColumnLatitude, ColumnLongitude,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads the restaurant table from a CSV file
type CSVSource struct {
	path string
}

var _ repositories.RestaurantSource = (*CSVSource)(nil)

// NewCSVSource creates a source for the CSV file at path
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// LoadAll reads and parses the whole file
func (s *CSVSource) LoadAll(ctx context.Context) ([]*entities.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperrors.NewInvalidDataError(fmt.Sprintf("failed to read %s", s.path), err)
	}
	restaurants, err := ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return restaurants, nil
}

// ParseCSV parses a restaurant table. Columns are matched by header name and
// extra columns are ignored. Input that is not valid UTF-8 is decoded as
// Windows-1252. An empty PriceRange cell is read as Unknown.
func ParseCSV(data []byte) ([]*entities.Restaurant, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, apperrors.NewInvalidDataError("failed to decode CSV", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewInvalidDataError("CSV is empty", nil)
	}
	if err != nil {
		return nil, apperrors.NewInvalidDataError("failed to read CSV header", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var restaurants []*entities.Restaurant
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, apperrors.NewInvalidDataError(fmt.Sprintf("line %d: malformed CSV", parseErr.Line), err)
			}
			return nil, apperrors.NewInvalidDataError("failed to read CSV", err)
		}
		line, _ := reader.FieldPos(0)

		r, err := parseRecord(record, index)
		if err != nil {
			return nil, apperrors.NewInvalidDataError(fmt.Sprintf("line %d", line), err)
		}
		restaurants = append(restaurants, r)
	}

	return restaurants, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewInvalidDataError(fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil)
	}
	return index, nil
}

func parseRecord(record []string, index map[string]int) (*entities.Restaurant, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	stars, err := parseFloat(ColumnStars, field(ColumnStars))
	if err != nil {
		return nil, err
	}
	lat, err := parseFloat(ColumnLatitude, field(ColumnLatitude))
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat(ColumnLongitude, field(ColumnLongitude))
	if err != nil {
		return nil, err
	}

	price := entities.PriceUnknown
	if raw := field(ColumnPrice); raw != "" {
		p, ok := entities.ParsePriceRange(raw)
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", ColumnPrice, raw)
		}
		price = p
	}

	return &entities.Restaurant{
		Name:       field(ColumnName),
		Stars:      stars,
		State:      field(ColumnState),
		City:       field(ColumnCity),
		Kitchen:    field(ColumnKitchen),
		Type:       field(ColumnType),
		PriceRange: price,
		Latitude:   lat,
		Longitude:  lon,
	}, nil
}

func parseFloat(column, value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("missing %s", column)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("malformed %s %q", column, value)
	}
	return f, nil
}
