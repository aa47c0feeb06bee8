package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/spektr-org/csvplot/dataset"
	"github.com/spektr-org/csvplot/engine"
	"github.com/spektr-org/csvplot/render"
	"github.com/spektr-org/csvplot/session"
)

const (
	awaitingUpload = "Awaiting for CSV file to be uploaded."
	uploadMissing  = "That upload is no longer available. Please upload the file again."
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultUploadName = "upload.csv"
)

// ============================================================================
// VIEW MODELS
// ============================================================================

type option struct {
	Value    string
	Label    string
	Selected bool
}

type indexView struct {
	Error string
	Info  string
}

type chartView struct {
	Frame string       // srcdoc for HTML output
	Image template.URL // data URL for image output
}

type datasetView struct {
	ID   string
	Name string
	Rows int
	Cols int

	Kinds     []option
	XOptions  []option
	YOptions  []option
	Renderers []option
	NeedsY    bool
	MultiY    bool
	XPrompt   string
	YPrompt   string

	Title      string
	XLabel     string
	YLabel     string
	AutoTitle  string
	AutoXLabel string
	AutoYLabel string
	Stats      bool

	Data    *engine.TableData
	Summary *engine.TableData

	Chart     *chartView
	PlotError string
	Hint      string

	ChartURL  string
	FigureURL string
	ExportURL string
}

// ============================================================================
// PAGES
// ============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.page(w, http.StatusOK, "index", indexView{Info: awaitingUpload})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.page(w, http.StatusRequestEntityTooLarge, "index", indexView{
				Error: fmt.Sprintf("Error reading the file: upload exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		s.page(w, http.StatusBadRequest, "index", indexView{Error: "Please choose a CSV file to upload."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.page(w, http.StatusBadRequest, "index", indexView{Error: fmt.Sprintf("Error reading the file: %v", err)})
		return
	}

	name := uploadName(header.Filename)
	entry, err := s.store.Put(name, data)
	if err != nil {
		s.logger.Warn("upload rejected", zap.String("file", name), zap.Error(err))
		status := http.StatusInternalServerError
		if dataset.IsParseFailure(err) {
			status = http.StatusUnprocessableEntity
		}
		s.page(w, status, "index", indexView{Error: fmt.Sprintf("Error reading the file: %v", err)})
		return
	}

	http.Redirect(w, r, "/d/"+entry.ID, http.StatusSeeOther)
}

// uploadName strips client directories from filename. Names that leave
// nothing usable fall back to defaultUploadName.
func uploadName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	switch name {
	case ".", "..", "/":
		return defaultUploadName
	}
	return name
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}
	ds := entry.Dataset
	form := parseForm(r.URL.Query(), ds)

	view := datasetView{
		ID:        entry.ID,
		Name:      entry.Name,
		Rows:      ds.Len(),
		Cols:      ds.NumColumns(),
		Kinds:     kindOptions(form.Kind),
		XOptions:  columnOptions(ds, form.X),
		YOptions:  columnOptions(ds, form.Y...),
		Renderers: rendererOptions(s.renderers, form.Renderer),
		NeedsY:    form.Kind.NeedsY(),
		MultiY:    form.Kind.MultiY(),
		XPrompt:   "Select X-axis",
		YPrompt:   "Select Y-axis",
		Stats:     form.Stats,
		Data:      engine.DataTable(ds, s.opts.tableRows),
	}
	if form.Kind == engine.KindHistogram {
		view.XPrompt = "Select Column for Histogram"
	}
	if view.MultiY {
		view.YPrompt = "Select Y-axis (or axes)"
	}
	if form.Stats {
		view.Summary = engine.SummaryTable(entry.Summary)
	}

	view.AutoTitle = engine.DefaultTitle(form.Kind, entry.Name)
	view.AutoXLabel = form.X
	if len(form.Y) > 0 {
		view.AutoYLabel = form.Y[0]
	}
	view.Title = firstNonEmpty(form.Title, view.AutoTitle)
	view.XLabel = firstNonEmpty(form.XLabel, view.AutoXLabel)
	view.YLabel = firstNonEmpty(form.YLabel, view.AutoYLabel)

	q := form.Query().Encode()
	view.ChartURL = "/d/" + entry.ID + "/chart?" + q
	view.FigureURL = "/d/" + entry.ID + "/figure.json?" + q
	view.ExportURL = "/d/" + entry.ID + "/export.xlsx"

	out, contentType, err := s.plot(entry, form)
	if err != nil {
		view.PlotError = fmt.Sprintf("An error occurred while generating the plot: %v", err)
		view.Hint = engine.CompatibilityHint
		s.page(w, http.StatusOK, "dataset", view)
		return
	}

	if strings.HasPrefix(contentType, "text/html") {
		view.Chart = &chartView{Frame: string(out)}
	} else {
		view.Chart = &chartView{Image: dataURL(contentType, out)}
	}
	s.page(w, http.StatusOK, "dataset", view)
}

// ============================================================================
// CHART OUTPUT
// ============================================================================

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}
	form := parseForm(r.URL.Query(), entry.Dataset)

	out, contentType, err := s.plot(entry, form)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintf(w, "%v\n%s\n", err, engine.CompatibilityHint)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if isChecked(r.URL.Query().Get("download")) {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chartFileName(entry.Name, contentType)))
	}
	_, _ = w.Write(out)
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}
	form := parseForm(r.URL.Query(), entry.Dataset)

	fig, err := s.figure(entry, form.Request())
	if err != nil {
		s.logPlotFailure(entry, err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"hint":  engine.CompatibilityHint,
		})
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := dataset.WriteXLSX(&buf, entry.Dataset, entry.Summary); err != nil {
		s.logger.Error("export failed", zap.String("id", entry.ID), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", baseName(entry.Name)+".xlsx"))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uploads": s.store.Len(),
	})
}

// ============================================================================
// PLOT PIPELINE
// ============================================================================

// figure resolves and builds the figure for req.
func (s *Server) figure(entry *session.Entry, req engine.PlotRequest) (*engine.Figure, error) {
	opts := []engine.Option{
		engine.WithFileName(entry.Name),
		engine.WithHistogramBins(s.opts.histogramBins),
		engine.WithLogger(s.logger),
	}
	if len(s.opts.colors) > 0 {
		opts = append(opts, engine.WithColors(s.opts.colors))
	}

	spec, err := engine.Resolve(entry.Dataset, req, opts...)
	if err != nil {
		return nil, err
	}
	return engine.BuildFigure(spec, opts...)
}

// plot runs the full pipeline and returns the rendered chart. Every failure
// is a *engine.PlotFailure and has already been logged.
func (s *Server) plot(entry *session.Entry, form formState) ([]byte, string, error) {
	fig, err := s.figure(entry, form.Request())
	if err != nil {
		s.logPlotFailure(entry, err)
		return nil, "", err
	}

	rr, err := s.renderers.Get(form.Renderer)
	if err != nil {
		err = engine.Wrap(engine.StageRender, fig.Kind, err)
		s.logPlotFailure(entry, err)
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := render.Render(rr, fig, &buf); err != nil {
		s.logPlotFailure(entry, err)
		return nil, "", err
	}
	return buf.Bytes(), rr.ContentType(), nil
}

func (s *Server) logPlotFailure(entry *session.Entry, err error) {
	fields := []zap.Field{zap.String("id", entry.ID), zap.Error(err)}
	if pf, ok := engine.AsPlotFailure(err); ok {
		fields = append(fields,
			zap.String("stage", string(pf.Stage)),
			zap.String("kind", string(pf.Kind)),
			zap.String("column", pf.Column))
	}
	s.logger.Warn("plot failed", fields...)
}

// entry looks up the upload named in the path, writing a 404 page if it is
// gone.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*session.Entry, bool) {
	entry, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		s.page(w, http.StatusNotFound, "index", indexView{Info: uploadMissing})
		return nil, false
	}
	return entry, true
}

// ============================================================================
// VIEW HELPERS
// ============================================================================

func kindOptions(selected engine.PlotKind) []option {
	out := make([]option, len(engine.Kinds))
	for i, k := range engine.Kinds {
		out[i] = option{Value: string(k), Label: string(k), Selected: k == selected}
	}
	return out
}

func columnOptions(ds *dataset.Dataset, selected ...string) []option {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	names := ds.ColumnNames()
	out := make([]option, len(names))
	for i, n := range names {
		out[i] = option{Value: n, Label: n, Selected: chosen[n]}
	}
	return out
}

func rendererOptions(reg *render.Registry, selected string) []option {
	if selected == "" {
		selected = reg.Default()
	}
	selected = strings.ToLower(strings.TrimSpace(selected))
	names := reg.Names()
	out := make([]option, len(names))
	for i, n := range names {
		out[i] = option{Value: n, Label: n, Selected: n == selected}
	}
	return out
}

func dataURL(contentType string, data []byte) template.URL {
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func chartFileName(upload, contentType string) string {
	ext := ".html"
	switch {
	case strings.HasPrefix(contentType, "image/svg"):
		ext = ".svg"
	case strings.HasPrefix(contentType, "image/png"):
		ext = ".png"
	}
	return baseName(upload) + ext
}

func baseName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
