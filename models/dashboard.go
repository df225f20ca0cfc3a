package models

import (
	"encoding/json"
	"math"
)

// Branch identifiers, in menu order.
const (
	BranchOdometerHistogram    = "odometer_histogram"
	BranchOdometerPriceScatter = "odometer_price_scatter"
	BranchPriceHistogram       = "price_histogram"
	BranchConditionScatter     = "condition_scatter"
	BranchRawPreview           = "raw_preview"
)

// Chart kinds understood by the renderer.
const (
	ChartHistogram = "histogram"
	ChartScatter   = "scatter"
)

// ViewFlags selects which optional views a render produces.
// Any subset may be active.
type ViewFlags struct {
	OdometerHistogram    bool `json:"odometer_histogram"`
	OdometerPriceScatter bool `json:"odometer_price_scatter"`
	PriceHistogram       bool `json:"price_histogram"`
	ConditionScatter     bool `json:"condition_scatter"`
	RawPreview           bool `json:"raw_preview"`
}

// AllViews returns flags with every view enabled.
func AllViews() ViewFlags {
	return ViewFlags{
		OdometerHistogram:    true,
		OdometerPriceScatter: true,
		PriceHistogram:       true,
		ConditionScatter:     true,
		RawPreview:           true,
	}
}

// Stat units. An empty unit is a plain count.
const (
	UnitUSD         = "USD"
	UnitKm          = "km"
	UnitCoefficient = "r"
)

// Stat is one labeled scalar. Defined is false when the value could not be
// computed, in which case Value is NaN.
type Stat struct {
	Label   string
	Value   float64
	Unit    string
	Defined bool
}

// MarshalJSON encodes an undefined value as null.
func (s Stat) MarshalJSON() ([]byte, error) {
	var v *float64
	if s.Defined && !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0) {
		val := s.Value
		v = &val
	}
	return json.Marshal(struct {
		Label   string   `json:"label"`
		Value   *float64 `json:"value"`
		Unit    string   `json:"unit,omitempty"`
		Defined bool     `json:"defined"`
	}{s.Label, v, s.Unit, v != nil})
}

// Bin is one half-open interval [Lower, Upper) of a histogram.
// The last bin also includes Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is an equal-width partition of a column's observed range.
type Histogram struct {
	Column string `json:"column"`
	Bins   []Bin  `json:"bins"`
	Total  int    `json:"total"`
}

// ChartRequest is a declarative description of a chart. Rendering it is
// left to a plotting backend.
type ChartRequest struct {
	Kind    string            `json:"kind"`
	Title   string            `json:"title"`
	X       string            `json:"x"`
	Y       string            `json:"y,omitempty"`
	Color   string            `json:"color,omitempty"`
	Bins    int               `json:"bins,omitempty"`
	Opacity float64           `json:"opacity,omitempty"`
	Accent  string            `json:"accent,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// Correlation sign classes.
const (
	RelationNegative  = "negative"
	RelationNone      = "none"
	RelationPositive  = "positive"
	RelationUndefined = "undefined"
)

// Correlation is a Pearson coefficient between two columns.
type Correlation struct {
	X         string `json:"x"`
	Y         string `json:"y"`
	Pairs     int    `json:"pairs"`
	Value     Stat   `json:"value"`
	Relation  string `json:"relation"`
	Narrative string `json:"narrative"`
}

// Category is one distinct value of a categorical column.
type Category struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Palette int    `json:"palette"`
}

// Preview is the head of the record set shown verbatim.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// Branch is the output of one active view.
type Branch struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Chart       *ChartRequest `json:"chart,omitempty"`
	Stats       []Stat        `json:"stats,omitempty"`
	Histogram   *Histogram    `json:"histogram,omitempty"`
	Correlation *Correlation  `json:"correlation,omitempty"`
	Categories  []Category    `json:"categories,omitempty"`
	Preview     *Preview      `json:"preview,omitempty"`
	Notice      string        `json:"notice,omitempty"`
}

// Dashboard is everything a single render produces.
type Dashboard struct {
	Overview []Stat    `json:"overview"`
	Flags    ViewFlags `json:"flags"`
	Branches []Branch  `json:"branches"`
}

// Branch returns the active branch with the given id.
func (d *Dashboard) Branch(id string) (*Branch, bool) {
	for i := range d.Branches {
		if d.Branches[i].ID == id {
			return &d.Branches[i], true
		}
	}
	return nil, false
}
