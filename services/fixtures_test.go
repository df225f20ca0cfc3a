package services

import (
	"database/sql"
	"strconv"

	"vehicle-dashboard/models"
	"vehicle-dashboard/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

func num(f float64) sql.NullFloat64 { return sql.NullFloat64{Float64: f, Valid: true} }

var missing = sql.NullFloat64{}

func vehicle(odometer, price sql.NullFloat64, condition string) *models.Vehicle {
	cell := func(n sql.NullFloat64) string {
		if !n.Valid {
			return ""
		}
		return strconv.FormatFloat(n.Float64, 'f', -1, 64)
	}
	return &models.Vehicle{
		Price:     price,
		Odometer:  odometer,
		Condition: condition,
		Values:    []string{cell(price), cell(odometer), condition},
	}
}

func recordSet(vs ...*models.Vehicle) *models.RecordSet {
	return &models.RecordSet{
		Columns:  []string{"price", "odometer", "condition"},
		Vehicles: vs,
	}
}

// twoPointSet is perfectly anti-correlated.
func twoPointSet() *models.RecordSet {
	return recordSet(
		vehicle(num(10000), num(20000), "good"),
		vehicle(num(50000), num(10000), "fair"),
	)
}
