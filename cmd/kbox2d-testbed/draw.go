package main

import (
	"fmt"
	"math"

	"github.com/ByteArena/kbox2d"
	"github.com/gdamore/tcell/v2"
)

const circleSegments = 24

var (
	styleStatic    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleKinematic = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleAwake     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSleeping  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleBullet    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleJoint     = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	styleStatus    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// Terminal cells are about twice as tall as wide, so a meter spans twice
// as many columns as rows.
func (tb *Testbed) rowsPerMeter() float64 {
	return float64(tb.height) / (2.0 * viewHalfHeight)
}

func (tb *Testbed) toCell(p kbox2d.Vec2) (int, int) {
	rpm := tb.rowsPerMeter()
	x := float64(tb.width)/2.0 + p.X*2.0*rpm
	y := float64(tb.height)/2.0 - (p.Y-viewCenterY)*rpm
	return int(math.Round(x)), int(math.Round(y))
}

func (tb *Testbed) toWorld(x, y int) kbox2d.Vec2 {
	rpm := tb.rowsPerMeter()
	return kbox2d.MakeVec2(
		(float64(x)-float64(tb.width)/2.0)/(2.0*rpm),
		viewCenterY-(float64(y)-float64(tb.height)/2.0)/rpm,
	)
}

func bodyStyle(body *kbox2d.Body) tcell.Style {
	switch {
	case body.Type() == kbox2d.StaticBody:
		return styleStatic
	case body.Type() == kbox2d.KinematicBody:
		return styleKinematic
	case body.IsBullet():
		return styleBullet
	case !body.IsAwake():
		return styleSleeping
	}
	return styleAwake
}

func (tb *Testbed) draw() {
	tb.screen.Clear()

	for b := tb.world.BodyList(); b != nil; b = b.Next() {
		style := bodyStyle(b)
		xf := b.Transform()
		for f := b.FixtureList(); f != nil; f = f.Next() {
			tb.drawShape(f.Shape(), xf, style)
		}
	}

	for j := tb.world.JointList(); j != nil; j = j.Next() {
		tb.drawSegment(j.AnchorA(), j.AnchorB(), '.', styleJoint)
	}

	tb.drawStatus()
	tb.screen.Show()
}

func (tb *Testbed) drawShape(shape kbox2d.Shape, xf kbox2d.Transform, style tcell.Style) {
	switch s := shape.(type) {
	case *kbox2d.CircleShape:
		center := kbox2d.TransformMulVec(xf, s.P)
		r := s.Radius()
		prev := center.Add(kbox2d.MakeVec2(r, 0.0))
		for i := 1; i <= circleSegments; i++ {
			a := 2.0 * kbox2d.Pi * float64(i) / circleSegments
			next := center.Add(kbox2d.MakeVec2(r*math.Cos(a), r*math.Sin(a)))
			tb.drawSegment(prev, next, 'o', style)
			prev = next
		}
		// Spoke so rotation is visible.
		tb.drawSegment(center, center.Add(kbox2d.RotMulVec(xf.Q, kbox2d.MakeVec2(r, 0.0))), '+', style)

	case *kbox2d.PolygonShape:
		for i := 0; i < s.Count; i++ {
			v1 := kbox2d.TransformMulVec(xf, s.Vertices[i])
			v2 := kbox2d.TransformMulVec(xf, s.Vertices[(i+1)%s.Count])
			tb.drawSegment(v1, v2, '#', style)
		}

	case *kbox2d.EdgeShape:
		tb.drawSegment(kbox2d.TransformMulVec(xf, s.Vertex1), kbox2d.TransformMulVec(xf, s.Vertex2), '=', style)

	case *kbox2d.ChainShape:
		for i := 0; i+1 < len(s.Vertices); i++ {
			tb.drawSegment(kbox2d.TransformMulVec(xf, s.Vertices[i]), kbox2d.TransformMulVec(xf, s.Vertices[i+1]), '=', style)
		}
	}
}

// drawSegment rasterizes a world segment with Bresenham's algorithm.
func (tb *Testbed) drawSegment(p1, p2 kbox2d.Vec2, ch rune, style tcell.Style) {
	x0, y0 := tb.toCell(p1)
	x1, y1 := tb.toCell(p2)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		if x0 >= 0 && x0 < tb.width && y0 >= 1 && y0 < tb.height {
			tb.screen.SetContent(x0, y0, ch, nil, style)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (tb *Testbed) drawStatus() {
	state := "running"
	if tb.paused {
		state = "paused"
	}
	ccd := "off"
	if tb.world.ContinuousPhysics() {
		ccd = "on"
	}

	profile := tb.world.Profile()
	status := fmt.Sprintf(" step %d [%s] bodies %d contacts %d joints %d ccd %s | %.2fms | space pause  s step  c ccd  r reload  q quit ",
		tb.stepCount, state, tb.world.BodyCount(), tb.world.ContactCount(), tb.world.JointCount(), ccd, profile.Step)

	x := 0
	for _, r := range status {
		if x >= tb.width {
			break
		}
		tb.screen.SetContent(x, 0, r, nil, styleStatus)
		x++
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
