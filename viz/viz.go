// Package viz renders the exercise figures to PNG files with gonum/plot:
// digit image grids, original-vs-reconstruction grids and 2-D scatter plots
// coloured by class or by a continuous value.
//
// Every function creates the parent directory of path when it is missing.
package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	// ErrEmpty indicates nothing to draw.
	ErrEmpty = errors.New("viz: nothing to plot")

	// ErrLengthMismatch indicates parallel inputs of different lengths.
	ErrLengthMismatch = errors.New("viz: length mismatch")

	// ErrShape indicates a digit whose pixel count differs from Height·Width,
	// or a point matrix with fewer than two columns.
	ErrShape = errors.New("viz: bad shape")
)

// Figure sizes.
const (
	TileSize    = 2 * vg.Inch
	ScatterSize = 6 * vg.Inch
	PanelWidth  = 4 * vg.Inch
	PointRadius = vg.Length(1.5)
)

// Digit is one grayscale image with intensities in [0, 255], row-major.
type Digit struct {
	Pixels        []float64
	Height, Width int
	Caption       string
}

// Labels names a plot and its axes.
type Labels struct {
	Title, X, Y string
}

// DigitRow draws the digits side by side.
func DigitRow(path string, digits []Digit) error {
	if len(digits) == 0 {
		return ErrEmpty
	}
	row, err := digitPlots(digits, false)
	if err != nil {
		return err
	}
	return saveTiles(path, [][]*plot.Plot{row}, TileSize)
}

// GridOption styles a Reconstruction figure.
type GridOption func(*gridStyle)

type gridStyle struct {
	inverted  bool
	rowTitles []string
}

// Inverted draws high intensities dark on a white background.
func Inverted() GridOption {
	return func(s *gridStyle) { s.inverted = true }
}

// RowTitles labels the originals row and the reconstructions row.
func RowTitles(originals, reconstructed string) GridOption {
	return func(s *gridStyle) { s.rowTitles = []string{originals, reconstructed} }
}

// Reconstruction draws originals on the top row and their reconstructions
// below, column by column.
func Reconstruction(path string, originals, reconstructed []Digit, opts ...GridOption) error {
	if len(originals) == 0 {
		return ErrEmpty
	}
	if len(originals) != len(reconstructed) {
		return fmt.Errorf("viz: %d originals, %d reconstructions: %w",
			len(originals), len(reconstructed), ErrLengthMismatch)
	}
	var st gridStyle
	for _, opt := range opts {
		opt(&st)
	}
	top, err := digitPlots(originals, st.inverted)
	if err != nil {
		return err
	}
	bottom, err := digitPlots(reconstructed, st.inverted)
	if err != nil {
		return err
	}
	return saveTiles(path, [][]*plot.Plot{top, bottom}, TileSize, st.rowTitles...)
}

func digitPlots(digits []Digit, inverted bool) ([]*plot.Plot, error) {
	out := make([]*plot.Plot, len(digits))
	for i, d := range digits {
		img, err := grayImage(d, inverted)
		if err != nil {
			return nil, fmt.Errorf("viz: digit %d: %w", i, err)
		}
		p := plot.New()
		p.Title.Text = d.Caption
		p.HideAxes()
		p.Add(plotter.NewImage(img, 0, 0, float64(d.Width), float64(d.Height)))
		out[i] = p
	}
	return out, nil
}

// grayImage maps intensities to 8-bit gray, clamping to [0, 255]; inverted
// maps 255 to black.
func grayImage(d Digit, inverted bool) (*image.Gray, error) {
	if d.Height < 1 || d.Width < 1 || len(d.Pixels) != d.Height*d.Width {
		return nil, fmt.Errorf("%d pixels for %dx%d: %w", len(d.Pixels), d.Height, d.Width, ErrShape)
	}
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	for r := 0; r < d.Height; r++ {
		for c := 0; c < d.Width; c++ {
			v := max(0, min(255, math.Round(d.Pixels[r*d.Width+c])))
			if inverted {
				v = 255 - v
			}
			img.SetGray(c, r, color.Gray{Y: uint8(v)})
		}
	}
	return img, nil
}

// ScatterByClass plots the first two columns of Z with one colour per class.
func ScatterByClass(path string, lb Labels, Z mat.Matrix, classes []int) error {
	xs, ys, err := firstTwoColumns(Z)
	if err != nil {
		return err
	}
	if len(classes) != len(xs) {
		return fmt.Errorf("viz: %d points, %d classes: %w", len(xs), len(classes), ErrLengthMismatch)
	}

	order, groups := groupByClass(xs, ys, classes)
	p := newPlot(lb)
	for i, c := range order {
		s, err := plotter.NewScatter(groups[c])
		if err != nil {
			return fmt.Errorf("viz: class %d: %w", c, err)
		}
		s.GlyphStyle = draw.GlyphStyle{Color: plotutil.Color(i), Radius: PointRadius, Shape: draw.CircleGlyph{}}
		p.Add(s)
		p.Legend.Add(fmt.Sprint(c), s)
	}
	p.Legend.Top = true
	return save(path, p, ScatterSize, ScatterSize)
}

// groupByClass splits the points per class. Classes come back in ascending
// order, which fixes their colours and legend entries.
func groupByClass(xs, ys []float64, classes []int) ([]int, map[int]plotter.XYs) {
	var order []int
	groups := make(map[int]plotter.XYs)
	for i, c := range classes {
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], plotter.XY{X: xs[i], Y: ys[i]})
	}
	slices.Sort(order)
	return order, groups
}

// ScatterByValue plots (xs[i], ys[i]) coloured on a diverging blue-red scale by values[i].
func ScatterByValue(path string, lb Labels, xs, ys, values []float64) error {
	p, err := valuePlot(lb, xs, ys, values)
	if err != nil {
		return err
	}
	return save(path, p, ScatterSize, ScatterSize)
}

// Panel is one scatter of a ScatterPanels figure; Z's first two columns are drawn.
type Panel struct {
	Labels
	Z      mat.Matrix
	Values []float64
}

// ScatterPanels draws the panels side by side with aligned axes.
func ScatterPanels(path string, panels []Panel) error {
	if len(panels) == 0 {
		return ErrEmpty
	}
	row := make([]*plot.Plot, len(panels))
	for i, pn := range panels {
		xs, ys, err := firstTwoColumns(pn.Z)
		if err != nil {
			return fmt.Errorf("viz: panel %d: %w", i, err)
		}
		if row[i], err = valuePlot(pn.Labels, xs, ys, pn.Values); err != nil {
			return fmt.Errorf("viz: panel %d: %w", i, err)
		}
	}
	return saveTiles(path, [][]*plot.Plot{row}, PanelWidth)
}

func valuePlot(lb Labels, xs, ys, values []float64) (*plot.Plot, error) {
	if len(xs) == 0 {
		return nil, ErrEmpty
	}
	if len(ys) != len(xs) || len(values) != len(xs) {
		return nil, fmt.Errorf("viz: %d xs, %d ys, %d values: %w", len(xs), len(ys), len(values), ErrLengthMismatch)
	}
	cm := moreland.SmoothBlueRed()
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		hi = lo + 1
	}
	cm.SetMin(lo)
	cm.SetMax(hi)

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("viz: %w", err)
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, err := cm.At(values[i])
		if err != nil {
			c = color.Black
		}
		return draw.GlyphStyle{Color: c, Radius: PointRadius, Shape: draw.CircleGlyph{}}
	}

	p := newPlot(lb)
	p.Add(s)
	return p, nil
}

func newPlot(lb Labels) *plot.Plot {
	p := plot.New()
	p.Title.Text = lb.Title
	p.X.Label.Text = lb.X
	p.Y.Label.Text = lb.Y
	p.Add(plotter.NewGrid())
	return p
}

func firstTwoColumns(Z mat.Matrix) ([]float64, []float64, error) {
	if Z == nil {
		return nil, nil, ErrEmpty
	}
	r, c := Z.Dims()
	if c < 2 {
		return nil, nil, fmt.Errorf("viz: %d columns: %w", c, ErrShape)
	}
	if r == 0 {
		return nil, nil, ErrEmpty
	}
	return mat.Col(nil, 0, Z), mat.Col(nil, 1, Z), nil
}

func save(path string, p *plot.Plot, w, h vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("viz: %w", err)
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("viz: save %s: %w", path, err)
	}
	return nil
}

// RowTitleBand is the height reserved above each row for its title.
const RowTitleBand = vg.Length(0.35 * vg.Inch)

// saveTiles aligns a grid of plots (rows of equal length) into one PNG. With
// titles, a band above each row carries titles[row].
func saveTiles(path string, plots [][]*plot.Plot, tile vg.Length, titles ...string) error {
	rows, cols := len(plots), len(plots[0])
	band := vg.Length(0)
	if len(titles) > 0 {
		band = RowTitleBand
	}
	img := vgimg.New(vg.Length(cols)*tile, vg.Length(rows)*(tile+band))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter + band,
		PadTop: vg.Millimeter + band, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i, p := range plots[j] {
			p.Draw(canvases[j][i])
		}
	}

	sty := draw.TextStyle{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, 14),
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
		Handler: plot.DefaultTextHandler,
	}
	for j, title := range titles {
		if j >= rows {
			break
		}
		top := tiles.At(dc, 0, j).Max.Y
		dc.FillText(sty, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: top + band/2}, title)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("viz: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("viz: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("viz: write %s: %w", path, err)
	}
	return f.Close()
}
