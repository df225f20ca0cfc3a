package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"vehicle-dashboard/models"
	"vehicle-dashboard/services"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("charts: no data to plot")

// palette is the qualitative color sequence for categorical series.
var palette = []string{
	"636EFA", "EF553B", "00CC96", "AB63FA", "FFA15A",
	"19D3F3", "FF6692", "B6E880", "FF97FF", "FECB52",
}

// Renderer turns chart requests into PNG images.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a Renderer with the default canvas size.
func NewRenderer() *Renderer {
	return &Renderer{Width: 960, Height: 480}
}

// PaletteColor returns the hex color (with '#') of palette slot i.
func PaletteColor(i int) string {
	return "#" + palette[i%len(palette)]
}

// RenderPNG draws branch b, taking point data from rs when needed.
func (r *Renderer) RenderPNG(w io.Writer, b *models.Branch, rs *models.RecordSet) error {
	if b == nil || b.Chart == nil {
		return fmt.Errorf("charts: branch has no chart")
	}

	var (
		ch  chart.Chart
		err error
	)
	switch b.Chart.Kind {
	case models.ChartHistogram:
		ch, err = r.histogram(b.Chart, b.Histogram)
	case models.ChartScatter:
		ch, err = r.scatter(b.Chart, b.Categories, rs)
	default:
		return fmt.Errorf("charts: unsupported chart kind %q", b.Chart.Kind)
	}
	if err != nil {
		return err
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("charts: render %s: %w", b.ID, err)
	}
	return nil
}

func (r *Renderer) base(req *models.ChartRequest, xName, yName string) chart.Chart {
	return chart.Chart{
		Title:      req.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName},
		YAxis:      chart.YAxis{Name: yName},
	}
}

// histogram draws the bins as a filled step outline.
func (r *Renderer) histogram(req *models.ChartRequest, h *models.Histogram) (chart.Chart, error) {
	if h == nil || len(h.Bins) == 0 {
		return chart.Chart{}, ErrNoData
	}

	accent := hexColor(req.Accent, 0)
	xs := []float64{h.Bins[0].Lower}
	ys := []float64{0}
	peak := 0
	for _, bin := range h.Bins {
		xs = append(xs, bin.Lower, bin.Upper)
		ys = append(ys, float64(bin.Count), float64(bin.Count))
		if bin.Count > peak {
			peak = bin.Count
		}
	}
	xs = append(xs, h.Bins[len(h.Bins)-1].Upper)
	ys = append(ys, 0)

	ch := r.base(req, labelFor(req, req.X), labelFor(req, "y"))
	ch.XAxis.Range = paddedRange(h.Bins[0].Lower, h.Bins[len(h.Bins)-1].Upper)
	ch.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: math.Max(1, float64(peak)*1.05)}
	ch.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    req.X,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: accent,
				StrokeWidth: 1,
				FillColor:   accent.WithAlpha(180),
			},
		},
	}
	return ch, nil
}

// scatter draws one point per record with both coordinates present. With a
// color binding each category becomes its own series.
func (r *Renderer) scatter(req *models.ChartRequest, cats []models.Category, rs *models.RecordSet) (chart.Chart, error) {
	if rs == nil {
		return chart.Chart{}, ErrNoData
	}
	alpha := uint8(math.Round(clamp01(req.Opacity) * 255))
	if req.Opacity == 0 {
		alpha = 255
	}

	type group struct {
		name   string
		color  drawing.Color
		xs, ys []float64
	}
	var groups []*group
	byName := make(map[string]*group)

	if req.Color == "" {
		g := &group{name: req.Y, color: hexColor(req.Accent, alpha)}
		groups = append(groups, g)
		byName[""] = g
	} else {
		for _, c := range cats {
			g := &group{name: c.Name, color: hexColor(palette[c.Palette%len(palette)], alpha)}
			groups = append(groups, g)
			byName[c.Name] = g
		}
	}

	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, v := range rs.Vehicles {
		x, okX := v.Numeric(req.X)
		y, okY := v.Numeric(req.Y)
		if !okX || !okY {
			return chart.Chart{}, fmt.Errorf("charts: columns %q/%q are not numeric", req.X, req.Y)
		}
		if !x.Valid || !y.Valid {
			continue
		}
		key := ""
		if req.Color != "" {
			key = services.CategoryOf(v)
		}
		g, ok := byName[key]
		if !ok {
			g = &group{name: key, color: hexColor(palette[len(groups)%len(palette)], alpha)}
			groups = append(groups, g)
			byName[key] = g
		}
		g.xs = append(g.xs, x.Float64)
		g.ys = append(g.ys, y.Float64)
		xmin, xmax = math.Min(xmin, x.Float64), math.Max(xmax, x.Float64)
		ymin, ymax = math.Min(ymin, y.Float64), math.Max(ymax, y.Float64)
	}

	ch := r.base(req, labelFor(req, req.X), labelFor(req, req.Y))
	for _, g := range groups {
		if len(g.xs) == 0 {
			continue
		}
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    g.name,
			XValues: g.xs,
			YValues: g.ys,
			Style:   pointStyle(g.color),
		})
	}
	if len(ch.Series) == 0 {
		return chart.Chart{}, ErrNoData
	}

	ch.XAxis.Range = paddedRange(xmin, xmax)
	ch.YAxis.Range = paddedRange(ymin, ymax)
	if req.Color != "" {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch, nil
}

// pointStyle returns a style that renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    2,
		DotColor:    col,
	}
}

// paddedRange widens a degenerate range so the axis has a non-zero span.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if hi <= lo {
		pad := math.Max(1, math.Abs(lo)*0.05)
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func labelFor(req *models.ChartRequest, key string) string {
	if l, ok := req.Labels[key]; ok {
		return l
	}
	return key
}

// hexColor parses "#RRGGBB" or "RRGGBB". alpha 0 keeps the color opaque.
func hexColor(hex string, alpha uint8) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if hex == "" {
		hex = palette[0]
	}
	c := drawing.ColorFromHex(hex)
	if alpha != 0 {
		c = c.WithAlpha(alpha)
	}
	return c
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
