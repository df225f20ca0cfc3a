package services

import (
	"errors"

	"vehicle-dashboard/models"
	"vehicle-dashboard/utils"
)

const (
	// PreviewRows is how many records the raw-data panel shows.
	PreviewRows = 100
	// ScatterOpacity is the point opacity of both scatter views.
	ScatterOpacity = 0.6

	unknownCategory = "unknown"
)

var axisLabels = map[string]string{
	models.ColumnOdometer:  "Odometer",
	models.ColumnPrice:     "Price (USD)",
	models.ColumnCondition: "Condition",
}

var narratives = map[string]string{
	models.RelationNegative:  "Negative correlation: higher mileage goes with a lower price",
	models.RelationPositive:  "Positive correlation: higher mileage goes with a higher price",
	models.RelationNone:      "No linear relation between mileage and price",
	models.RelationUndefined: "Not enough data to compute a correlation",
}

// branchDef ties one view flag to the function building its output.
type branchDef struct {
	id      string
	label   string
	enabled func(models.ViewFlags) bool
	build   func(*models.RecordSet) (models.Branch, error)
}

// Menu returns the id and label of every optional view, in display order.
func Menu() [][2]string {
	defs := branchDefs()
	menu := make([][2]string, len(defs))
	for i, d := range defs {
		menu[i] = [2]string{d.id, d.label}
	}
	return menu
}

func branchDefs() []branchDef {
	return []branchDef{
		{
			id:      models.BranchOdometerHistogram,
			label:   "Build an odometer histogram",
			enabled: func(f models.ViewFlags) bool { return f.OdometerHistogram },
			build: func(rs *models.RecordSet) (models.Branch, error) {
				return histogramBranch(rs, models.ColumnOdometer,
					"Mileage distribution (odometer)", "#636EFA", models.UnitKm)
			},
		},
		{
			id:      models.BranchOdometerPriceScatter,
			label:   "Build a scatter plot",
			enabled: func(f models.ViewFlags) bool { return f.OdometerPriceScatter },
			build:   odometerPriceScatter,
		},
		{
			id:      models.BranchPriceHistogram,
			label:   "Build a price histogram",
			enabled: func(f models.ViewFlags) bool { return f.PriceHistogram },
			build: func(rs *models.RecordSet) (models.Branch, error) {
				return histogramBranch(rs, models.ColumnPrice,
					"Vehicle price distribution", "#00CC96", models.UnitUSD)
			},
		},
		{
			id:      models.BranchConditionScatter,
			label:   "Build a scatter plot by vehicle condition",
			enabled: func(f models.ViewFlags) bool { return f.ConditionScatter },
			build:   conditionScatter,
		},
		{
			id:      models.BranchRawPreview,
			label:   "Show raw data",
			enabled: func(f models.ViewFlags) bool { return f.RawPreview },
			build:   rawPreview,
		},
	}
}

// DashboardService turns a record set and view flags into a Dashboard.
type DashboardService struct {
	logger *utils.Logger
}

// NewDashboardService creates a DashboardService with the given logger.
func NewDashboardService(logger *utils.Logger) *DashboardService {
	return &DashboardService{logger: logger}
}

// Render computes the overview and every active branch. Each branch reads
// only rs, so toggling one never changes another. rs is not modified.
func (s *DashboardService) Render(rs *models.RecordSet, flags models.ViewFlags) (*models.Dashboard, error) {
	if rs == nil {
		return nil, errors.New("render: nil record set")
	}

	overview, err := overviewStats(rs)
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{Overview: overview, Flags: flags, Branches: []models.Branch{}}
	for _, def := range branchDefs() {
		if !def.enabled(flags) {
			continue
		}
		b, err := def.build(rs)
		if err != nil {
			return nil, err
		}
		b.ID, b.Label = def.id, def.label
		d.Branches = append(d.Branches, b)
	}

	s.logger.Debug("[dashboard] Rendered %d records, %d active views", rs.Len(), len(d.Branches))
	return d, nil
}

// RenderBranch computes a single branch by id.
func (s *DashboardService) RenderBranch(rs *models.RecordSet, id string) (*models.Branch, bool, error) {
	if rs == nil {
		return nil, false, errors.New("render: nil record set")
	}
	for _, def := range branchDefs() {
		if def.id != id {
			continue
		}
		b, err := def.build(rs)
		if err != nil {
			return nil, true, err
		}
		b.ID, b.Label = def.id, def.label
		return &b, true, nil
	}
	return nil, false, nil
}

func overviewStats(rs *models.RecordSet) ([]models.Stat, error) {
	price, err := Summarize(rs, models.ColumnPrice)
	if err != nil {
		return nil, err
	}
	odo, err := Summarize(rs, models.ColumnOdometer)
	if err != nil {
		return nil, err
	}
	return []models.Stat{
		{Label: "Total vehicles", Value: float64(rs.Len()), Defined: true},
		newStat("Average price", price.Mean, models.UnitUSD, price.Defined()),
		newStat("Average mileage", odo.Mean, models.UnitKm, odo.Defined()),
	}, nil
}

func histogramBranch(rs *models.RecordSet, column, title, accent, unit string) (models.Branch, error) {
	values, err := NumericColumn(rs, column)
	if err != nil {
		return models.Branch{}, err
	}
	sum, err := Summarize(rs, column)
	if err != nil {
		return models.Branch{}, err
	}

	b := models.Branch{
		Chart: &models.ChartRequest{
			Kind:   models.ChartHistogram,
			Title:  title,
			X:      column,
			Bins:   HistogramBins,
			Accent: accent,
			Labels: map[string]string{column: axisLabels[column], "y": "Frequency"},
		},
		Histogram: BuildHistogram(column, values, HistogramBins),
		Stats: []models.Stat{
			newStat("Minimum "+column, sum.Min, unit, sum.Defined()),
			newStat("Maximum "+column, sum.Max, unit, sum.Defined()),
			newStat("Average "+column, sum.Mean, unit, sum.Defined()),
		},
	}
	if !sum.Defined() {
		b.Notice = "No " + column + " values to summarise"
	}
	return b, nil
}

func odometerPriceScatter(rs *models.RecordSet) (models.Branch, error) {
	corr, err := correlation(rs, models.ColumnOdometer, models.ColumnPrice)
	if err != nil {
		return models.Branch{}, err
	}
	return models.Branch{
		Chart: &models.ChartRequest{
			Kind:    models.ChartScatter,
			Title:   "Mileage vs price",
			X:       models.ColumnOdometer,
			Y:       models.ColumnPrice,
			Opacity: ScatterOpacity,
			Accent:  "#EF553B",
			Labels:  scatterLabels(false),
		},
		Stats:       []models.Stat{corr.Value},
		Correlation: corr,
		Notice:      corr.Narrative,
	}, nil
}

func conditionScatter(rs *models.RecordSet) (models.Branch, error) {
	corr, err := correlation(rs, models.ColumnOdometer, models.ColumnPrice)
	if err != nil {
		return models.Branch{}, err
	}
	return models.Branch{
		Chart: &models.ChartRequest{
			Kind:    models.ChartScatter,
			Title:   "Mileage, price and vehicle condition",
			X:       models.ColumnOdometer,
			Y:       models.ColumnPrice,
			Color:   models.ColumnCondition,
			Opacity: ScatterOpacity,
			Labels:  scatterLabels(true),
		},
		Stats:       []models.Stat{corr.Value},
		Correlation: corr,
		Categories:  Categories(rs),
		Notice:      "Each color is one vehicle condition, which shows how price patterns shift with the state of the vehicle",
	}, nil
}

func rawPreview(rs *models.RecordSet) (models.Branch, error) {
	n := rs.Len()
	if n > PreviewRows {
		n = PreviewRows
	}
	p := &models.Preview{
		Columns: append([]string(nil), rs.Columns...),
		Rows:    make([][]string, n),
		Total:   rs.Len(),
	}
	for i := 0; i < n; i++ {
		p.Rows[i] = append([]string(nil), rs.Vehicles[i].Values...)
	}
	return models.Branch{
		Preview: p,
		Stats:   []models.Stat{{Label: "Total records", Value: float64(p.Total), Defined: true}},
	}, nil
}

func correlation(rs *models.RecordSet, x, y string) (*models.Correlation, error) {
	xs, ys, err := PairedColumns(rs, x, y)
	if err != nil {
		return nil, err
	}
	r, err := Pearson(xs, ys)
	if err != nil && !errors.Is(err, models.ErrUndefinedStatistic) {
		return nil, err
	}
	relation := Classify(r)
	return &models.Correlation{
		X:         x,
		Y:         y,
		Pairs:     len(xs),
		Value:     newStat("Correlation", r, models.UnitCoefficient, err == nil),
		Relation:  relation,
		Narrative: narratives[relation],
	}, nil
}

// Categories lists the distinct condition values in first-seen order with
// their record counts. Missing conditions are grouped as "unknown".
func Categories(rs *models.RecordSet) []models.Category {
	index := make(map[string]int)
	var cats []models.Category
	for _, v := range rs.Vehicles {
		name := CategoryOf(v)
		i, ok := index[name]
		if !ok {
			i = len(cats)
			index[name] = i
			cats = append(cats, models.Category{Name: name, Palette: i})
		}
		cats[i].Count++
	}
	return cats
}

// CategoryOf returns the condition category a vehicle is colored by.
func CategoryOf(v *models.Vehicle) string {
	if v.Condition == "" {
		return unknownCategory
	}
	return v.Condition
}

func scatterLabels(withColor bool) map[string]string {
	labels := map[string]string{
		models.ColumnOdometer: axisLabels[models.ColumnOdometer],
		models.ColumnPrice:    axisLabels[models.ColumnPrice],
	}
	if withColor {
		labels[models.ColumnCondition] = axisLabels[models.ColumnCondition]
	}
	return labels
}

func newStat(label string, value float64, unit string, defined bool) models.Stat {
	return models.Stat{Label: label, Value: value, Unit: unit, Defined: defined}
}
