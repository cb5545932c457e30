package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Plot geometry in SVG user units.
const (
	plotWidth  = 720.0
	plotHeight = 320.0
	padLeft    = 52.0
	padRight   = 16.0
	padTop     = 16.0
	padBottom  = 44.0
	yTickCount = 5
	maxXTicks  = 12
)

// Series colours.
const (
	ColorIVProxy     = "#3b82f6"
	ColorRealizedVol = "#10b981"
	ColorActualMove  = "#ef4444"
	ColorReference   = "#9ca3af"
)

// Point is a mapped SVG coordinate with its hover text.
type Point struct {
	X   float64
	Y   float64
	Tip string
}

// Tick is an axis label at a mapped position.
type Tick struct {
	Pos   float64
	Label string
}

// Line is a named polyline.
type Line struct {
	Name   string
	Color  string
	Dashed bool
	Points []Point
}

// Path renders the polyline points attribute.
func (l Line) Path() string {
	var b strings.Builder
	for i, p := range l.Points {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Coord(p.X))
		b.WriteByte(',')
		b.WriteString(Coord(p.Y))
	}
	return b.String()
}

// Frame is the plotting area inside the padding.
type Frame struct {
	Width  float64
	Height float64
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func newFrame() Frame {
	return Frame{
		Width:  plotWidth,
		Height: plotHeight,
		Left:   padLeft,
		Top:    padTop,
		Right:  plotWidth - padRight,
		Bottom: plotHeight - padBottom,
	}
}

// ViewBox is the svg viewBox attribute.
func (f Frame) ViewBox() string {
	return fmt.Sprintf("0 0 %s %s", Coord(f.Width), Coord(f.Height))
}

// axis maps a value domain onto a pixel range.
type axis struct {
	lo, hi   float64
	from, to float64
}

func (a axis) at(v float64) float64 {
	if a.hi == a.lo {
		return (a.from + a.to) / 2
	}
	return a.from + (v-a.lo)/(a.hi-a.lo)*(a.to-a.from)
}

func (a axis) ticks(n int) []Tick {
	out := make([]Tick, 0, n)
	for k := 0; k < n; k++ {
		v := a.lo + float64(k)*(a.hi-a.lo)/float64(n-1)
		out = append(out, Tick{Pos: a.at(v), Label: tickLabel(v)})
	}
	return out
}

// LinePlot is the month-by-month trend chart.
type LinePlot struct {
	Frame
	Lines  []Line
	XTicks []Tick
	YTicks []Tick
}

// NewLinePlot lays out series oldest to newest from left to right.
func NewLinePlot(series []SeriesPoint) *LinePlot {
	f := newFrame()
	lo, hi := 0.0, 0.0
	for _, p := range series {
		lo = math.Min(lo, math.Min(p.IVProxy, math.Min(p.RealizedVol, p.ActualMove)))
		hi = math.Max(hi, math.Max(p.IVProxy, math.Max(p.RealizedVol, p.ActualMove)))
	}
	y := axis{lo: -niceCeil(-lo), hi: niceCeil(hi), from: f.Bottom, to: f.Top}
	if lo == 0 {
		y.lo = 0
	}
	x := axis{lo: 0, hi: float64(len(series) - 1), from: f.Left, to: f.Right}
	if len(series) < 2 {
		x.hi = 0
	}

	iv := Line{Name: "IV Proxy", Color: ColorIVProxy}
	rv := Line{Name: "5-Day Realized Vol", Color: ColorRealizedVol}
	mv := Line{Name: "Actual Move", Color: ColorActualMove}
	var xt []Tick
	step := (len(series) + maxXTicks - 1) / maxXTicks
	for i, p := range series {
		px := x.at(float64(i))
		iv.Points = append(iv.Points, Point{X: px, Y: y.at(p.IVProxy), Tip: p.Label + ": " + Percent(p.IVProxy)})
		rv.Points = append(rv.Points, Point{X: px, Y: y.at(p.RealizedVol), Tip: p.Label + ": " + Percent(p.RealizedVol)})
		mv.Points = append(mv.Points, Point{X: px, Y: y.at(p.ActualMove), Tip: p.Label + ": " + Percent(p.ActualMove)})
		if i%step == 0 {
			xt = append(xt, Tick{Pos: px, Label: p.Label})
		}
	}
	return &LinePlot{
		Frame:  f,
		Lines:  []Line{iv, rv, mv},
		XTicks: xt,
		YTicks: y.ticks(yTickCount),
	}
}

// ScatterPlot compares predicted against actual moves.
type ScatterPlot struct {
	Frame
	Dots      []Point
	Reference Line
	XTicks    []Tick
	YTicks    []Tick
}

// NewScatterPlot sizes both axes so the reference diagonal is fully visible.
func NewScatterPlot(pairs []PairPoint) *ScatterPlot {
	f := newFrame()
	maxX, maxY := ReferenceLine[1].IVProxy, ReferenceLine[1].ActualMove
	minX, minY := 0.0, 0.0
	for _, p := range pairs {
		maxX, minX = math.Max(maxX, p.IVProxy), math.Min(minX, p.IVProxy)
		maxY, minY = math.Max(maxY, p.ActualMove), math.Min(minY, p.ActualMove)
	}
	x := axis{lo: -niceCeil(-minX), hi: niceCeil(maxX), from: f.Left, to: f.Right}
	y := axis{lo: -niceCeil(-minY), hi: niceCeil(maxY), from: f.Bottom, to: f.Top}
	if minX == 0 {
		x.lo = 0
	}
	if minY == 0 {
		y.lo = 0
	}

	dots := make([]Point, 0, len(pairs))
	for _, p := range pairs {
		dots = append(dots, Point{
			X:   x.at(p.IVProxy),
			Y:   y.at(p.ActualMove),
			Tip: fmt.Sprintf("%s: IV %s, move %s", p.Label, Percent(p.IVProxy), Percent(p.ActualMove)),
		})
	}
	ref := Line{Name: ReferenceLineName, Color: ColorReference, Dashed: true}
	for _, p := range ReferenceLine {
		ref.Points = append(ref.Points, Point{X: x.at(p.IVProxy), Y: y.at(p.ActualMove)})
	}
	return &ScatterPlot{
		Frame:     f,
		Dots:      dots,
		Reference: ref,
		XTicks:    x.ticks(yTickCount),
		YTicks:    y.ticks(yTickCount),
	}
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 0
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	f := v / exp
	switch {
	case f <= 1:
		f = 1
	case f <= 2:
		f = 2
	case f <= 5:
		f = 5
	default:
		f = 10
	}
	return f * exp
}

func tickLabel(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "%"
}

// Coord formats an SVG coordinate with at most two decimals.
func Coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
