// Package render draws the hand skeleton and gesture metrics onto frames.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/detector"
	"github.com/ayusman/handarm/internal/gesture"
)

var (
	boneColor  = color.RGBA{0, 0, 255, 0}
	jointColor = color.RGBA{0, 255, 0, 0}
	wristColor = color.RGBA{255, 0, 0, 0}
	panelColor = color.RGBA{0, 0, 0, 0}
	textColor  = color.RGBA{255, 255, 255, 0}

	// tipColors are the thumb, index and middle fingertip markers.
	tipColors = [3]color.RGBA{
		{255, 0, 255, 0},
		{255, 255, 0, 0},
		{0, 255, 255, 0},
	}
)

// chains are the drawn fingers, each from the wrist out to the tip.
var chains = [][]int{
	{detector.Wrist, detector.ThumbCMC, detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip},
	{detector.Wrist, detector.MiddleMCP, detector.MiddlePIP, detector.MiddleDIP, detector.MiddleTip},
}

const (
	panelOrigin = 10
	lineHeight  = 22
	panelWidth  = 300
)

// Overlay draws onto frames in place.
type Overlay struct {
	Thickness   int
	JointRadius int
	TipRadius   int
	FontScale   float64
}

// NewOverlay returns an Overlay with default line and marker sizes.
func NewOverlay() *Overlay {
	return &Overlay{
		Thickness:   2,
		JointRadius: 4,
		TipRadius:   8,
		FontScale:   0.5,
	}
}

// Status is the non-metric state shown in the panel.
type Status struct {
	Model      string
	Publishing bool
}

// Draw renders hand and m onto img. A nil hand draws only the panel with a no-hand line.
func (o *Overlay) Draw(img *gocv.Mat, hand *detector.HandLandmarks, m *gesture.Metrics, st Status) {
	if hand != nil {
		size := image.Pt(img.Cols(), img.Rows())
		o.drawHand(img, hand.Pixels(size))
	}
	if m != nil && hand != nil {
		o.drawTipLabels(img, m.Tips)
	}
	o.drawPanel(img, PanelLines(m, st))
}

func (o *Overlay) drawHand(img *gocv.Mat, px [detector.NumLandmarks]image.Point) {
	for _, chain := range chains {
		for i := 1; i < len(chain); i++ {
			gocv.Line(img, px[chain[i-1]], px[chain[i]], boneColor, o.Thickness)
		}
		for _, idx := range chain[1:] {
			gocv.Circle(img, px[idx], o.JointRadius, jointColor, -1)
		}
	}
	gocv.Circle(img, px[detector.Wrist], o.JointRadius+2, wristColor, -1)
}

func (o *Overlay) drawTipLabels(img *gocv.Mat, tips gesture.Tips) {
	for i, p := range []image.Point{tips.Thumb, tips.Index, tips.Middle} {
		gocv.Circle(img, p, o.TipRadius, tipColors[i], 2)
		gocv.PutText(img, fmt.Sprintf("(%d, %d)", p.X, p.Y), p.Add(image.Pt(o.TipRadius+2, -o.TipRadius)),
			gocv.FontHersheySimplex, o.FontScale*0.8, tipColors[i], 1)
	}
}

func (o *Overlay) drawPanel(img *gocv.Mat, lines []string) {
	panel := image.Rect(panelOrigin, panelOrigin, panelOrigin+panelWidth, panelOrigin+lineHeight*len(lines)+8)
	gocv.Rectangle(img, panel, panelColor, -1)
	for i, line := range lines {
		pt := image.Pt(panelOrigin+8, panelOrigin+lineHeight*(i+1))
		gocv.PutText(img, line, pt, gocv.FontHersheySimplex, o.FontScale, textColor, 1)
	}
}

// PanelLines returns the text shown in the metrics panel.
func PanelLines(m *gesture.Metrics, st Status) []string {
	publishing := "off"
	if st.Publishing {
		publishing = "on"
	}
	if m == nil {
		return []string{
			"No hand detected",
			"Publishing: " + publishing,
		}
	}

	lines := []string{
		fmt.Sprintf("Openness: %d%% (%s)", m.OpennessPercent, m.OpennessState),
		fmt.Sprintf("Palm: %s (%d%%)", m.Facing, m.FacingPercent),
		fmt.Sprintf("Wrist: (%d, %d)", m.Wrist.X, m.Wrist.Y),
		fmt.Sprintf("Reach: %d px", m.Reach),
		fmt.Sprintf("Motion: %s", m.Motion),
	}
	if st.Model != "" {
		lines = append(lines, "Model: "+st.Model)
	}
	return append(lines, "Publishing: "+publishing)
}
