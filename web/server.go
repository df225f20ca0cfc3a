package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vehicle-dashboard/charts"
	"vehicle-dashboard/models"
	"vehicle-dashboard/services"
	"vehicle-dashboard/utils"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// DatasetLoader yields a fresh record set for each render.
type DatasetLoader interface {
	Load(ctx context.Context) (*models.RecordSet, error)
}

// Server serves the dashboard page, its JSON API and chart images.
type Server struct {
	loader    DatasetLoader
	dashboard *services.DashboardService
	renderer  *charts.Renderer
	logger    *utils.Logger
	engine    *gin.Engine
}

// NewServer wires the routes. Every request loads the dataset anew.
func NewServer(loader DatasetLoader, dashboard *services.DashboardService, renderer *charts.Renderer, logger *utils.Logger) (*Server, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"formatStat":   services.FormatStat,
		"paletteColor": charts.PaletteColor,
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	s := &Server{loader: loader, dashboard: dashboard, renderer: renderer, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleIndex)
	r.GET("/api/dashboard", s.handleAPI)
	r.GET("/charts/:name", s.handleChart)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	s.engine = r
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("[web] Dashboard listening on http://%s", ln.Addr())
	return s.Serve(ctx, ln)
}

type menuItem struct {
	ID      string
	Label   string
	Checked bool
}

type pageData struct {
	Dashboard *models.Dashboard
	Menu      []menuItem
	Error     string
}

func (s *Server) handleIndex(c *gin.Context) {
	flags := ParseFlags(c.Query)
	menu := buildMenu(flags)

	d, status, err := s.render(c.Request.Context(), flags)
	if err != nil {
		c.HTML(status, "dashboard.html", pageData{Menu: menu, Error: err.Error()})
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", pageData{Dashboard: d, Menu: menu})
}

func (s *Server) handleAPI(c *gin.Context) {
	d, status, err := s.render(c.Request.Context(), ParseFlags(c.Query))
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleChart(c *gin.Context) {
	id, ok := strings.CutSuffix(c.Param("name"), ".png")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart"})
		return
	}

	rs, err := s.loader.Load(c.Request.Context())
	if err != nil {
		s.logger.Error("[web] %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	b, found, err := s.dashboard.RenderBranch(rs, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found || b.Chart == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart"})
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderPNG(&buf, b, rs); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("[web] Chart %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// render loads the dataset and evaluates the dashboard once.
func (s *Server) render(ctx context.Context, flags models.ViewFlags) (*models.Dashboard, int, error) {
	rs, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("[web] %v", err)
		return nil, statusFor(err), err
	}
	d, err := s.dashboard.Render(rs, flags)
	if err != nil {
		s.logger.Error("[web] Render failed: %v", err)
		return nil, http.StatusInternalServerError, err
	}
	return d, http.StatusOK, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[web] %s %s → %d (%v)",
			c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
	}
}

func statusFor(err error) int {
	if errors.Is(err, models.ErrDataUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func buildMenu(flags models.ViewFlags) []menuItem {
	checked := map[string]bool{
		models.BranchOdometerHistogram:    flags.OdometerHistogram,
		models.BranchOdometerPriceScatter: flags.OdometerPriceScatter,
		models.BranchPriceHistogram:       flags.PriceHistogram,
		models.BranchConditionScatter:     flags.ConditionScatter,
		models.BranchRawPreview:           flags.RawPreview,
	}
	var items []menuItem
	for _, m := range services.Menu() {
		items = append(items, menuItem{ID: m[0], Label: m[1], Checked: checked[m[0]]})
	}
	return items
}

// ParseFlags reads the view toggles from query parameters. "1", "true",
// "on" and "yes" switch a view on; anything else leaves it off.
func ParseFlags(query func(string) string) models.ViewFlags {
	on := func(key string) bool {
		switch strings.ToLower(strings.TrimSpace(query(key))) {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	}
	return models.ViewFlags{
		OdometerHistogram:    on(models.BranchOdometerHistogram),
		OdometerPriceScatter: on(models.BranchOdometerPriceScatter),
		PriceHistogram:       on(models.BranchPriceHistogram),
		ConditionScatter:     on(models.BranchConditionScatter),
		RawPreview:           on(models.BranchRawPreview),
	}
}

// Query encodes flags as the query string that ParseFlags reads back.
func Query(flags models.ViewFlags) string {
	var parts []string
	add := func(key string, v bool) {
		if v {
			parts = append(parts, key+"=1")
		}
	}
	add(models.BranchOdometerHistogram, flags.OdometerHistogram)
	add(models.BranchOdometerPriceScatter, flags.OdometerPriceScatter)
	add(models.BranchPriceHistogram, flags.PriceHistogram)
	add(models.BranchConditionScatter, flags.ConditionScatter)
	add(models.BranchRawPreview, flags.RawPreview)
	return strings.Join(parts, "&")
}
