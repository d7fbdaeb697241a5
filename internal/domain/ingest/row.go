package ingest

// Row is one raw line of a usage source, keyed by column name. The streaming
// reader produces rows; the validator consumes them.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the value for a column, or empty string if absent.
func (r Row) Get(column string) string {
	return r.Fields[column]
}

// GetOrDefault returns the value for a column, or the default if absent or empty.
func (r Row) GetOrDefault(column, defaultVal string) string {
	if v, ok := r.Fields[column]; ok && v != "" {
		return v
	}
	return defaultVal
}

// IsEmpty returns true if the row has no non-empty values.
func (r Row) IsEmpty() bool {
	for _, v := range r.Fields {
		if v != "" {
			return false
		}
	}
	return true
}
