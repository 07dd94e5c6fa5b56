package campaign

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// naMarkers are cell values read as missing, mirroring the markers spreadsheet
// and dataframe tooling writes for empty values.
var naMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

var (
	errNegative    = errors.New("value must not be negative")
	errNotInteger  = errors.New("value must be a whole number")
	errNotNumber   = errors.New("value is not a number")
	errNotFinite   = errors.New("value must be finite")
	errOutOfRange  = errors.New("value exceeds the supported range")
	errExtraFields = errors.New("row has more fields than the header")
)

func isMissing(cell string) bool {
	_, ok := naMarkers[strings.TrimSpace(cell)]
	return ok
}

// ParseCSV decodes a comma-separated sessions export. Rows without a campaign
// label are dropped before any other cell is inspected, so their content never
// causes an error.
func ParseCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	raw, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, csvError(err)
	}

	header := NormalizeHeader(raw)
	idx, err := MapColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Rows: make([]SessionRow, 0)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		ds.RowsRead++

		line, _ := cr.FieldPos(0)
		if len(record) > len(header) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: expected %d, got %d", errExtraFields, len(header), len(record))}
		}

		row, ok, err := decodeRecord(record, idx, line)
		if err != nil {
			return nil, err
		}
		if !ok {
			ds.RowsDropped++
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

func decodeRecord(record []string, idx ColumnIndex, line int) (SessionRow, bool, error) {
	cell := func(f Field) string {
		if pos := idx[f]; pos < len(record) {
			return record[pos]
		}
		return ""
	}

	label := cell(FieldCampaign)
	if isMissing(label) {
		return SessionRow{}, false, nil
	}
	row := SessionRow{Campaign: strings.TrimSpace(label)}

	counts := []struct {
		header string
		field  Field
		dst    *int64
	}{
		{HeaderSessions, FieldSessions, &row.Sessions},
		{HeaderConversions, FieldConversions, &row.Conversions},
		{HeaderAddToCart, FieldAddToCart, &row.AddToCart},
		{HeaderReachedCheckout, FieldReachedCheckout, &row.ReachedCheckout},
	}
	for _, c := range counts {
		v, err := parseCount(cell(c.field))
		if err != nil {
			return SessionRow{}, false, &ParseError{Line: line, Column: c.header, Err: err}
		}
		*c.dst = v
	}

	d, present, err := parseDuration(cell(FieldTimeOnSite))
	if err != nil {
		return SessionRow{}, false, &ParseError{Line: line, Column: HeaderTimeOnSite, Err: err}
	}
	row.TimeOnSite = d
	row.DurationMissing = !present

	return row, true, nil
}

func parseCount(cell string) (int64, error) {
	if isMissing(cell) {
		return 0, nil
	}
	s := strings.TrimSpace(cell)
	v, err := strconv.ParseInt(s, 10, 64)
	switch {
	case err == nil && v < 0:
		return 0, errNegative
	case err == nil:
		return v, nil
	case errors.Is(err, strconv.ErrRange):
		if strings.HasPrefix(s, "-") {
			return 0, errNegative
		}
		return 0, fmt.Errorf("%w: %q", errOutOfRange, s)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNotNumber, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", errNotInteger, s)
	}
	if f < 0 {
		return 0, errNegative
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", errOutOfRange, s)
	}
	return int64(f), nil
}

func parseDuration(cell string) (float64, bool, error) {
	if isMissing(cell) {
		return 0, false, nil
	}
	s := strings.TrimSpace(cell)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", errNotNumber, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, errNotFinite
	}
	if f < 0 {
		return 0, false, errNegative
	}
	return f, true, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.StartLine, Err: pe.Err}
	}
	return fmt.Errorf("read csv: %w", err)
}
