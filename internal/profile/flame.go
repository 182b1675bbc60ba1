package profile

import (
	"html/template"
	"io"
	"time"
)

type flameNode struct {
	Name     string
	Duration string
	Width    float64 // percent of the parent's width
	Children []flameNode
}

var flameTemplate = template.Must(template.New("flame").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>hueswap profile</title>
<style>
body { font: 12px monospace; margin: 16px; }
.span { box-sizing: border-box; display: flex; flex-direction: column; min-width: 0; }
.label { background: #e8743b; border: 1px solid #fff; padding: 2px 4px; overflow: hidden; white-space: nowrap; text-overflow: ellipsis; }
.children { display: flex; flex-direction: row; }
</style>
</head>
<body>
{{- range .}}
<div class="children">{{template "span" .}}</div>
{{- end}}
</body>
</html>
{{define "span"}}<div class="span" style="width: {{printf "%.3f" .Width}}%">
<div class="label" title="{{.Name}} {{.Duration}}">{{.Name}} {{.Duration}}</div>
{{- if .Children}}
<div class="children">{{range .Children}}{{template "span" .}}{{end}}</div>
{{- end}}
</div>{{end}}`))

// WriteHTML writes a self-contained flamegraph page. Each span is drawn
// above its children, scaled to its share of the parent's time.
func (p *Profiler) WriteHTML(w io.Writer) error {
	roots := p.Roots()
	nodes := make([]flameNode, len(roots))
	for i, s := range roots {
		nodes[i] = toFlameNode(s, s.Duration)
	}
	return flameTemplate.Execute(w, nodes)
}

func toFlameNode(s *Span, parent time.Duration) flameNode {
	n := flameNode{
		Name:     s.Name,
		Duration: s.Duration.Round(time.Microsecond).String(),
		Width:    100,
	}
	if parent > 0 {
		n.Width = float64(s.Duration) / float64(parent) * 100
	}
	for _, c := range s.Children {
		n.Children = append(n.Children, toFlameNode(c, s.Duration))
	}
	return n
}
