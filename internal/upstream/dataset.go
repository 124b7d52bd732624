package upstream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

// DatasetColumns is the header of the static hotel CSV.
var DatasetColumns = []string{
	model.FieldID, model.FieldName, model.FieldAddress, model.FieldCity,
	model.FieldLatitude, model.FieldLongitude, model.FieldPropertyType, model.FieldStatus,
	model.FieldPrice, model.FieldCurrency, model.FieldRating, model.FieldFinalRating,
}

var numericColumns = map[string]bool{
	model.FieldLatitude:    true,
	model.FieldLongitude:   true,
	model.FieldPrice:       true,
	model.FieldRating:      true,
	model.FieldFinalRating: true,
}

const (
	defaultPropertyType = "hotel"
	defaultCurrency     = "INR"
)

// Dataset serves listings from a static CSV file. The file is read once, on
// first use, and kept in memory.
type Dataset struct {
	path   string
	logger *slog.Logger

	once    sync.Once
	loadErr error
	byCity  map[string][]model.Listing
	total   int
}

// NewDataset creates a dataset backed by the CSV file at path.
func NewDataset(path string, logger *slog.Logger) *Dataset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dataset{path: path, logger: logger}
}

// FetchLocal returns the listings whose city matches params.City, ignoring case.
// An unknown city yields an empty batch.
func (d *Dataset) FetchLocal(ctx context.Context, params services.SearchParams) (services.Batch, error) {
	if err := ctx.Err(); err != nil {
		return services.Batch{}, err
	}
	if err := d.load(); err != nil {
		return services.Batch{}, errors.NewUpstreamError("local", "", "", err)
	}

	city := params.Normalized().City
	matches := d.byCity[city]
	hotels := make([]model.Listing, len(matches))
	copy(hotels, matches)

	d.logger.Debug("local dataset lookup", "city", city, "hotels", len(hotels))
	return services.Batch{Hotels: hotels}, nil
}

// Size returns the number of listings in the dataset, loading it if needed.
func (d *Dataset) Size() (int, error) {
	if err := d.load(); err != nil {
		return 0, err
	}
	return d.total, nil
}

func (d *Dataset) load() error {
	d.once.Do(func() {
		file, err := os.Open(d.path)
		if err != nil {
			d.loadErr = fmt.Errorf("failed to open dataset %s: %w", d.path, err)
			return
		}
		defer file.Close()

		byCity, total, err := readDataset(file)
		if err != nil {
			d.loadErr = fmt.Errorf("failed to read dataset %s: %w", d.path, err)
			return
		}
		d.byCity = byCity
		d.total = total
		d.logger.Info("local dataset loaded", "path", d.path, "hotels", total, "cities", len(byCity))
	})
	return d.loadErr
}

// readDataset parses the CSV and groups listings by lowercase city.
func readDataset(r io.Reader) (map[string][]model.Listing, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	byCity := make(map[string][]model.Listing)
	total := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		listing := parseRecord(header, record)
		city, ok := listing.GetCity()
		if !ok {
			continue
		}
		key := strings.ToLower(city)
		byCity[key] = append(byCity[key], listing)
		total++
	}
	return byCity, total, nil
}

func parseRecord(header, record []string) model.Listing {
	listing := make(model.Listing, len(header))
	for i, column := range header {
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}

		switch {
		case numericColumns[column]:
			if value == "" {
				listing[column] = nil
			} else if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				listing[column] = f
			} else {
				listing[column] = value
			}
		default:
			listing[column] = value
		}
	}

	if s, _ := listing[model.FieldPropertyType].(string); s == "" {
		listing[model.FieldPropertyType] = defaultPropertyType
	}
	if s, _ := listing[model.FieldCurrency].(string); s == "" {
		listing[model.FieldCurrency] = defaultCurrency
	}
	return listing
}
