package models

import "database/sql"

// Required columns every vehicle dataset must carry.
const (
	ColumnPrice     = "price"
	ColumnOdometer  = "odometer"
	ColumnCondition = "condition"
)

// RawTable holds the unprocessed rows of a source exactly as read.
// Every row has len(Columns) values.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Vehicle is one typed listing. Price and Odometer are invalid when the
// source value was missing or unparseable. Values keeps the verbatim row.
type Vehicle struct {
	Price     sql.NullFloat64
	Odometer  sql.NullFloat64
	Condition string
	Values    []string
}

// Numeric returns the named numeric column of v.
func (v *Vehicle) Numeric(column string) (sql.NullFloat64, bool) {
	switch column {
	case ColumnPrice:
		return v.Price, true
	case ColumnOdometer:
		return v.Odometer, true
	}
	return sql.NullFloat64{}, false
}

// RecordSet is the ordered collection of vehicles loaded for one render.
// It is never mutated after loading.
type RecordSet struct {
	Columns  []string
	Vehicles []*Vehicle
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Vehicles)
}
