// Package portfolio parses holdings CSV into line items.
package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Header is the canonical first line of a holdings CSV.
const Header = "Symbol,Quantity,AvgPrice,LTP"

// ErrNoHoldings means the input had a header but no usable rows.
var ErrNoHoldings = errors.New("could not parse portfolio")

// Column aliases accepted in a user-supplied header, after lowercasing.
var headerAliases = map[string]string{
	"symbol":     "symbol",
	"stock":      "symbol",
	"quantity":   "quantity",
	"qty":        "quantity",
	"avgprice":   "avgprice",
	"avg price":  "avgprice",
	"avgcost":    "avgprice",
	"ltp":        "ltp",
	"last price": "ltp",
	"cmp":        "ltp",
}

type csvRow struct {
	Symbol   string `csv:"symbol"`
	Quantity string `csv:"quantity"`
	AvgPrice string `csv:"avgprice"`
	LTP      string `csv:"ltp"`
}

// RowError reports a data row that could not be turned into a line item.
type RowError struct {
	Line    int
	Field   string
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s %s", e.Line, e.Field, e.Message)
}

// NormalizeCSV unifies line endings, drops leading blank lines and makes
// sure the text starts with a header row. A recognised header is rewritten
// to the canonical column names; otherwise Header is prepended.
func NormalizeCSV(text string) string {
	lines := splitLines(text)
	if len(lines) == 0 {
		return Header + "\n"
	}

	if names, ok := canonicalHeader(lines[0]); ok {
		for i, name := range names {
			if display, known := displayNames[name]; known {
				names[i] = display
			}
		}
		lines[0] = strings.Join(names, ",")
		return strings.Join(lines, "\n")
	}
	return Header + "\n" + strings.Join(lines, "\n")
}

var displayNames = map[string]string{
	"symbol":   "Symbol",
	"quantity": "Quantity",
	"avgprice": "AvgPrice",
	"ltp":      "LTP",
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return lines
}

// canonicalHeader maps a header line onto lowercase canonical column names.
// A line counts as a header when it names both the symbol and quantity
// columns; unknown columns are kept under a placeholder and ignored.
func canonicalHeader(line string) ([]string, bool) {
	cells := strings.Split(line, ",")
	names := make([]string, len(cells))
	seen := make(map[string]bool, len(cells))
	for i, cell := range cells {
		key := strings.Join(strings.Fields(strings.ToLower(cell)), " ")
		name, ok := headerAliases[key]
		if !ok {
			name, ok = headerAliases[strings.ReplaceAll(key, " ", "")]
		}
		if !ok || seen[name] {
			name = fmt.Sprintf("_col%d", i)
		}
		seen[name] = true
		names[i] = name
	}
	return names, seen["symbol"] && seen["quantity"]
}

// ParseCSV reads holdings. Blank lines are ignored; quantity and average
// price must be numbers; LTP may be blank.
func ParseCSV(r io.Reader) ([]models.LineItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading portfolio: %w", err)
	}

	lines := splitLines(NormalizeCSV(string(data)))
	names, _ := canonicalHeader(lines[0])
	lines[0] = strings.Join(names, ",")

	var rows []csvRow
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrNoHoldings
		}
		return nil, fmt.Errorf("parsing portfolio csv: %w", err)
	}

	items := make([]models.LineItem, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		symbol := strings.TrimSpace(row.Symbol)
		if symbol == "" && strings.TrimSpace(row.Quantity) == "" && strings.TrimSpace(row.AvgPrice) == "" {
			continue
		}
		if symbol == "" {
			return nil, &RowError{Line: line, Field: "symbol", Message: "is missing"}
		}

		item := models.LineItem{Symbol: strings.ToUpper(symbol)}
		if item.Quantity, err = parseAmount(row.Quantity); err != nil {
			return nil, &RowError{Line: line, Field: "quantity", Message: err.Error()}
		}
		if item.AvgPrice, err = parseAmount(row.AvgPrice); err != nil {
			return nil, &RowError{Line: line, Field: "avgPrice", Message: err.Error()}
		}
		if strings.TrimSpace(row.LTP) != "" {
			ltp, err := parseAmount(row.LTP)
			if err != nil {
				return nil, &RowError{Line: line, Field: "ltp", Message: err.Error()}
			}
			item.LTP = &ltp
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, ErrNoHoldings
	}
	return items, nil
}

// parseAmount accepts plain numbers plus the rupee sign and thousands
// separators that broker exports often include.
func parseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "₹")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, errors.New("is missing")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("is not a number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative: %q", s)
	}
	return v, nil
}

// Describe renders one holding per line for the upstream prompt.
func Describe(items []models.LineItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.Describe()
	}
	return strings.Join(lines, "\n")
}
