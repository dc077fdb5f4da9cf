// Package panel loads country-month protest-count panels and exposes
// per-series count sequences to the estimator. A panel CSV has a header of
// the form `country,month,<event type>...`; every remaining column is one
// protest type, every row one country-month with non-negative integer counts.
package panel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/changefang/pkg/changepoint"
)

// Fixed leading columns of a panel CSV.
const (
	columnCountry = "country"
	columnMonth   = "month"
)

// minColumns is the smallest usable header: country, month, one event type.
const minColumns = 3

// Sentinel errors for panel parsing and series lookup.
var (
	// ErrBadHeader indicates a missing or malformed header row.
	ErrBadHeader = errors.New("panel header must be country,month,<event type>...")

	// ErrBadRow indicates a row that does not parse as a country-month record.
	ErrBadRow = errors.New("malformed panel row")

	// ErrNonContiguous indicates a country's months are not 1..n in order.
	ErrNonContiguous = errors.New("country months must be contiguous and ascending from 1")

	// ErrUnknownSeries indicates a country/event type pair absent from the panel.
	ErrUnknownSeries = errors.New("unknown series")
)

// Panel holds a loaded country-month count panel.
type Panel struct {
	eventTypes []string
	counts     map[string][][]int // country -> [month][event type index].
}

// LoadFile reads a panel CSV from disk.
func LoadFile(path string) (*Panel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel: %w", err)
	}
	defer file.Close()

	p, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("load panel %s: %w", path, err)
	}

	return p, nil
}

// Load parses a panel CSV from the reader.
func Load(r io.Reader) (*Panel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}

	if len(header) < minColumns ||
		!strings.EqualFold(strings.TrimSpace(header[0]), columnCountry) ||
		!strings.EqualFold(strings.TrimSpace(header[1]), columnMonth) {
		return nil, fmt.Errorf("%w: got %v", ErrBadHeader, header)
	}

	p := &Panel{
		eventTypes: make([]string, 0, len(header)-2),
		counts:     make(map[string][][]int),
	}

	for _, name := range header[2:] {
		p.eventTypes = append(p.eventTypes, strings.TrimSpace(name))
	}

	line := 1

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read panel: %w", readErr)
		}

		line++

		rowErr := p.addRow(record, line)
		if rowErr != nil {
			return nil, rowErr
		}
	}

	validateErr := p.validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return p, nil
}

func (p *Panel) addRow(record []string, line int) error {
	if len(record) != len(p.eventTypes)+2 {
		return fmt.Errorf("%w: line %d has %d fields, want %d", ErrBadRow, line, len(record), len(p.eventTypes)+2)
	}

	country := strings.TrimSpace(record[0])
	if country == "" {
		return fmt.Errorf("%w: line %d has empty country", ErrBadRow, line)
	}

	month, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil || month < 1 {
		return fmt.Errorf("%w: line %d month %q is not a positive integer", ErrBadRow, line, record[1])
	}

	row := make([]int, len(p.eventTypes))

	for i, field := range record[2:] {
		count, countErr := strconv.Atoi(strings.TrimSpace(field))
		if countErr != nil || count < 0 {
			return fmt.Errorf("%w: line %d count %q is not a non-negative integer", ErrBadRow, line, field)
		}

		row[i] = count
	}

	if month != len(p.counts[country])+1 {
		return fmt.Errorf("%w: country %q line %d has month %d, want %d",
			ErrNonContiguous, country, line, month, len(p.counts[country])+1)
	}

	p.counts[country] = append(p.counts[country], row)

	return nil
}

func (p *Panel) validate() error {
	if len(p.counts) == 0 {
		return fmt.Errorf("%w: panel has no rows", ErrBadRow)
	}

	return nil
}

// Countries returns the panel's countries in sorted order.
func (p *Panel) Countries() []string {
	out := make([]string, 0, len(p.counts))
	for country := range p.counts {
		out = append(out, country)
	}

	sort.Strings(out)

	return out
}

// EventTypes returns the protest type columns in header order.
func (p *Panel) EventTypes() []string {
	out := make([]string, len(p.eventTypes))
	copy(out, p.eventTypes)

	return out
}

// Months returns the number of observed months for the country, 0 if absent.
func (p *Panel) Months(country string) int {
	return len(p.counts[country])
}

// Series extracts one (country, event type) count sequence. The sequence ID
// is "country/event type".
func (p *Panel) Series(country, eventType string) (*changepoint.Sequence, error) {
	rows, ok := p.counts[country]
	if !ok {
		return nil, fmt.Errorf("%w: country %q not in panel", ErrUnknownSeries, country)
	}

	col := -1

	for i, name := range p.eventTypes {
		if strings.EqualFold(name, eventType) {
			col = i

			break
		}
	}

	if col < 0 {
		return nil, fmt.Errorf("%w: event type %q not in panel", ErrUnknownSeries, eventType)
	}

	counts := make([]int, len(rows))
	for t, row := range rows {
		counts[t] = row[col]
	}

	return changepoint.NewSequence(country+"/"+p.eventTypes[col], counts)
}
