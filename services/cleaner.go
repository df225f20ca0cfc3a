package services

import (
	"fmt"
	"strings"
	"unicode"

	"vehicle-dashboard/models"
	"vehicle-dashboard/utils"
)

// Cleaner transforms a RawTable into a typed RecordSet.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean types every row of raw. Rows are never dropped: unparseable
// numerics become missing values. A header lacking price, odometer or
// condition yields models.ErrDataUnavailable.
func (c *Cleaner) Clean(raw *models.RawTable) (*models.RecordSet, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no table", models.ErrDataUnavailable)
	}

	priceIdx, odoIdx, condIdx, err := requiredColumns(raw.Columns)
	if err != nil {
		return nil, err
	}

	rs := &models.RecordSet{
		Columns:  append([]string(nil), raw.Columns...),
		Vehicles: make([]*models.Vehicle, 0, len(raw.Rows)),
	}

	var badPrice, badOdometer int
	for i, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d",
				models.ErrDataUnavailable, i+1, len(row), len(raw.Columns))
		}

		price, ok := models.ParseNumber(row[priceIdx])
		if !ok && !models.IsMissing(row[priceIdx]) {
			badPrice++
			c.logger.Debug("[cleaner] Row %d: unparseable price %q", i+1, row[priceIdx])
		}
		odometer, ok := models.ParseNumber(row[odoIdx])
		if !ok && !models.IsMissing(row[odoIdx]) {
			badOdometer++
			c.logger.Debug("[cleaner] Row %d: unparseable odometer %q", i+1, row[odoIdx])
		}

		rs.Vehicles = append(rs.Vehicles, &models.Vehicle{
			Price:     price,
			Odometer:  odometer,
			Condition: normaliseCondition(row[condIdx]),
			Values:    append([]string(nil), row...),
		})
	}

	if badPrice > 0 || badOdometer > 0 {
		c.logger.Warn("[cleaner] Treated %d price and %d odometer values as missing (unparseable)",
			badPrice, badOdometer)
	}
	c.logger.Debug("[cleaner] Typed %d records over %d columns", len(rs.Vehicles), len(rs.Columns))
	return rs, nil
}

func requiredColumns(columns []string) (price, odometer, condition int, err error) {
	pos := make(map[string]int, len(columns))
	for i, col := range columns {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	price = lookup(models.ColumnPrice)
	odometer = lookup(models.ColumnOdometer)
	condition = lookup(models.ColumnCondition)

	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: missing required columns: %s",
			models.ErrDataUnavailable, strings.Join(missing, ", "))
	}
	return price, odometer, condition, nil
}

// normaliseCondition strips surrounding whitespace and collapses internal
// whitespace. Missing tokens become the empty string.
func normaliseCondition(s string) string {
	if models.IsMissing(s) {
		return ""
	}
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
