package services

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"vehicle-dashboard/models"
)

// ColumnSummary holds the single-column aggregates of one numeric column.
// When Count is zero Mean, Min and Max are NaN.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	Min    float64
	Max    float64
}

// Defined reports whether the summary has any values.
func (s ColumnSummary) Defined() bool {
	return s.Count > 0
}

// NumericColumn returns the non-missing values of column in record order.
func NumericColumn(rs *models.RecordSet, column string) ([]float64, error) {
	if rs == nil {
		return nil, nil
	}
	values := make([]float64, 0, len(rs.Vehicles))
	for _, v := range rs.Vehicles {
		n, ok := v.Numeric(column)
		if !ok {
			return nil, fmt.Errorf("column %q is not numeric", column)
		}
		if n.Valid {
			values = append(values, n.Float64)
		}
	}
	return values, nil
}

// PairedColumns returns the values of x and y for records where both are
// present.
func PairedColumns(rs *models.RecordSet, x, y string) ([]float64, []float64, error) {
	if rs == nil {
		return nil, nil, nil
	}
	xs := make([]float64, 0, len(rs.Vehicles))
	ys := make([]float64, 0, len(rs.Vehicles))
	for _, v := range rs.Vehicles {
		xv, ok := v.Numeric(x)
		if !ok {
			return nil, nil, fmt.Errorf("column %q is not numeric", x)
		}
		yv, ok := v.Numeric(y)
		if !ok {
			return nil, nil, fmt.Errorf("column %q is not numeric", y)
		}
		if xv.Valid && yv.Valid {
			xs = append(xs, xv.Float64)
			ys = append(ys, yv.Float64)
		}
	}
	return xs, ys, nil
}

// Mean returns the arithmetic mean of values, or NaN and
// models.ErrUndefinedStatistic when values is empty.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), fmt.Errorf("mean of no values: %w", models.ErrUndefinedStatistic)
	}
	return stat.Mean(values, nil), nil
}

// Min returns the smallest value, or NaN and models.ErrUndefinedStatistic.
func Min(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), fmt.Errorf("min of no values: %w", models.ErrUndefinedStatistic)
	}
	return floats.Min(values), nil
}

// Max returns the largest value, or NaN and models.ErrUndefinedStatistic.
func Max(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), fmt.Errorf("max of no values: %w", models.ErrUndefinedStatistic)
	}
	return floats.Max(values), nil
}

// Pearson returns the correlation coefficient of the paired samples. It is
// undefined (NaN with models.ErrUndefinedStatistic) for fewer than two pairs
// or when either sample is constant.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return math.NaN(), fmt.Errorf("pearson: %d x values vs %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return math.NaN(), fmt.Errorf("pearson over %d pairs: %w", len(xs), models.ErrUndefinedStatistic)
	}
	if floats.Min(xs) == floats.Max(xs) || floats.Min(ys) == floats.Max(ys) {
		return math.NaN(), fmt.Errorf("pearson over a constant column: %w", models.ErrUndefinedStatistic)
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return r, fmt.Errorf("pearson: %w", models.ErrUndefinedStatistic)
	}
	// Rounding can push |r| a hair past 1.
	return math.Max(-1, math.Min(1, r)), nil
}

// Summarize computes count, mean, min and max of the non-missing values of
// column.
func Summarize(rs *models.RecordSet, column string) (ColumnSummary, error) {
	values, err := NumericColumn(rs, column)
	if err != nil {
		return ColumnSummary{}, err
	}
	s := ColumnSummary{Column: column, Count: len(values)}
	s.Mean, _ = Mean(values)
	s.Min, _ = Min(values)
	s.Max, _ = Max(values)
	return s, nil
}

// Classify maps a correlation coefficient to its sign class. Exactly zero
// is reported as no relation.
func Classify(r float64) string {
	switch {
	case math.IsNaN(r):
		return models.RelationUndefined
	case r < 0:
		return models.RelationNegative
	case r > 0:
		return models.RelationPositive
	default:
		return models.RelationNone
	}
}
