package agent

import (
	"bytes"
	"encoding/json"

	"github.com/mtlprog/finagent/internal/repository"
)

// Field is one named value in a Record.
type Field struct {
	Name  string
	Value any
}

// Record is a result row whose fields keep the column order of the statement.
// It marshals to a JSON object with keys in that order.
type Record []Field

// Get returns the value of the first field called name.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of field name, appending it when absent.
func (r *Record) Set(name string, value any) {
	for i := range *r {
		if (*r)[i].Name == name {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Field{Name: name, Value: value})
}

// MarshalJSON writes the fields as an object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// recordsFrom maps every row of set to a Record.
func recordsFrom(set *repository.RowSet) []Record {
	records := make([]Record, 0, len(set.Rows))
	for _, row := range set.Rows {
		rec := make(Record, 0, len(set.Columns))
		for i, col := range set.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}
			rec = append(rec, Field{Name: col, Value: v})
		}
		records = append(records, rec)
	}
	return records
}
