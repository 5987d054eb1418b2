// Package normalize turns loosely structured spreadsheet rows into readings.
package normalize

import "strings"

// Cell is one keyed value of a row.
type Cell struct {
	Key   string
	Value any
}

// Row keeps the natural column order of the source sheet. Column resolution
// is "first matching key wins", so the order is significant.
type Row []Cell

// NewRow builds a row from parallel header and value slices. Missing values
// are skipped, as are empty headers.
func NewRow(headers []string, values []any) Row {
	row := make(Row, 0, len(headers))
	for i, key := range headers {
		if i >= len(values) || key == "" {
			continue
		}
		if values[i] == nil {
			continue
		}
		row = append(row, Cell{Key: key, Value: values[i]})
	}
	return row
}

// Get returns the value stored under key (exact match).
func (r Row) Get(key string) (any, bool) {
	for _, cell := range r {
		if cell.Key == key {
			return cell.Value, true
		}
	}
	return nil, false
}

// Keys returns the row keys in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, cell := range r {
		keys[i] = cell.Key
	}
	return keys
}

// find returns the first cell whose lowercase key contains any candidate.
func (r Row) find(candidates []string) (any, bool) {
	for _, cell := range r {
		key := strings.ToLower(cell.Key)
		for _, candidate := range candidates {
			if candidate == "" {
				continue
			}
			if strings.Contains(key, strings.ToLower(candidate)) {
				return cell.Value, true
			}
		}
	}
	return nil, false
}
