package server

import (
	"net/url"
	"strings"

	"github.com/spektr-org/csvplot/dataset"
	"github.com/spektr-org/csvplot/engine"
)

// ============================================================================
// FORM STATE — Query string ⇄ PlotRequest
// ============================================================================
// The label fields are submitted pre-filled with their defaults. Each one
// travels with an auto_* twin holding the default it was filled with; a
// field still equal to its twin is treated as "not overridden" so switching
// kind or column refreshes the default instead of pinning the old one.
// ============================================================================

type formState struct {
	Kind     engine.PlotKind
	X        string
	Y        []string
	Title    string
	XLabel   string
	YLabel   string
	Stats    bool
	Renderer string
}

// parseForm reads the plot controls from q. Without an x selection the
// widget defaults for the kind are used.
func parseForm(q url.Values, ds *dataset.Dataset) formState {
	f := formState{
		Kind:     engine.KindScatter,
		X:        strings.TrimSpace(q.Get("x")),
		Y:        nonEmpty(q["y"]),
		Stats:    isChecked(q.Get("stats")),
		Renderer: q.Get("renderer"),
	}
	if raw := strings.TrimSpace(q.Get("kind")); raw != "" {
		f.Kind = engine.PlotKind(raw)
		if k, err := engine.ParseKind(raw); err == nil {
			f.Kind = k
		}
	}

	if f.X == "" && len(f.Y) == 0 {
		f.X, f.Y = engine.DefaultSelection(ds, f.Kind)
	}
	// A multi-select left over from a Line chart keeps its first pick.
	if !f.Kind.MultiY() && len(f.Y) > 1 {
		f.Y = f.Y[:1]
	}
	if !f.Kind.NeedsY() {
		f.Y = nil
	}

	f.Title = override(q, "title")
	f.XLabel = override(q, "xlabel")
	f.YLabel = override(q, "ylabel")
	return f
}

// Request converts the form into a resolver request.
func (f formState) Request() engine.PlotRequest {
	return engine.PlotRequest{
		Kind:   f.Kind,
		X:      f.X,
		Y:      f.Y,
		Title:  f.Title,
		XLabel: f.XLabel,
		YLabel: f.YLabel,
	}
}

// Query encodes the form for chart and figure links.
func (f formState) Query() url.Values {
	q := url.Values{}
	q.Set("kind", string(f.Kind))
	q.Set("x", f.X)
	for _, y := range f.Y {
		q.Add("y", y)
	}
	setIf(q, "title", f.Title)
	setIf(q, "xlabel", f.XLabel)
	setIf(q, "ylabel", f.YLabel)
	setIf(q, "renderer", f.Renderer)
	if f.Stats {
		q.Set("stats", "on")
	}
	return q
}

// override returns the field value unless it still equals its default twin.
func override(q url.Values, field string) string {
	v := strings.TrimSpace(q.Get(field))
	if v == "" || v == strings.TrimSpace(q.Get("auto_"+field)) {
		return ""
	}
	return v
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
