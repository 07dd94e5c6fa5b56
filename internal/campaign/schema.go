package campaign

import (
	"errors"
	"fmt"
	"strings"
)

// Source headers as they appear in a Shopify sessions export.
const (
	HeaderCampaign        = "UTM campaign"
	HeaderSessions        = "Sessions"
	HeaderConversions     = "Sessions that completed checkout"
	HeaderAddToCart       = "Sessions with cart additions"
	HeaderReachedCheckout = "Sessions that reached checkout"
	HeaderTimeOnSite      = "Average session duration"
)

// Field is the canonical internal name of a mapped column.
type Field string

const (
	FieldCampaign        Field = "campaign"
	FieldSessions        Field = "sessions"
	FieldConversions     Field = "conversions"
	FieldAddToCart       Field = "add_to_cart"
	FieldReachedCheckout Field = "reached_checkout"
	FieldTimeOnSite      Field = "time_on_site"
)

type columnSpec struct {
	header string
	field  Field
}

// columns is ordered so missing-column errors list headers in export order.
var columns = []columnSpec{
	{HeaderCampaign, FieldCampaign},
	{HeaderSessions, FieldSessions},
	{HeaderConversions, FieldConversions},
	{HeaderAddToCart, FieldAddToCart},
	{HeaderReachedCheckout, FieldReachedCheckout},
	{HeaderTimeOnSite, FieldTimeOnSite},
}

var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrMalformedRow    = errors.New("malformed row")
	ErrCountOverflow   = errors.New("count total exceeds the supported range")
	ErrEmptyInput      = errors.New("input has no header row")
	ErrInvalidOptions  = errors.New("invalid options")
)

// MissingColumnsError reports every expected source header absent from the input.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMalformedHeader
}

// ParseError locates a cell that could not be decoded.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedRow
}

// OverflowError reports a campaign whose summed count no longer fits an
// int64. Campaign and Column are empty when the engine cannot tell which
// group overflowed.
type OverflowError struct {
	Campaign string
	Column   string
}

func (e *OverflowError) Error() string {
	if e.Campaign == "" {
		return ErrCountOverflow.Error()
	}
	return fmt.Sprintf("campaign %q, column %q: %v", e.Campaign, e.Column, ErrCountOverflow)
}

func (e *OverflowError) Is(target error) bool {
	return target == ErrCountOverflow || target == ErrMalformedRow
}

// ColumnIndex maps each canonical field to its position in a record.
type ColumnIndex map[Field]int

// NormalizeHeader trims surrounding whitespace from every column name and
// strips a UTF-8 byte-order mark from the first one.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

// MapColumns resolves the expected source headers against a normalized header
// row. The first occurrence of a duplicated name wins; unmapped columns are ignored.
func MapColumns(header []string) (ColumnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	idx := make(ColumnIndex, len(columns))
	var missing []string
	for _, c := range columns {
		pos, ok := positions[c.header]
		if !ok {
			missing = append(missing, c.header)
			continue
		}
		idx[c.field] = pos
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return idx, nil
}
