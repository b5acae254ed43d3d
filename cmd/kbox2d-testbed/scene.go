package main

import (
	"github.com/ByteArena/kbox2d"
)

const (
	pyramidRows = 8
	boxHalf     = 0.5
)

// defaultScene is a box pyramid on a ground edge plus a bullet aimed at it.
func defaultScene() kbox2d.SceneDef {
	def := kbox2d.SceneDef{Name: "pyramid"}

	def.Bodies = append(def.Bodies, kbox2d.BodySceneDef{
		Name: "ground",
		Type: kbox2d.StaticBody,
		Fixtures: []kbox2d.FixtureSceneDef{{
			Kind:     "edge",
			Vertices: []kbox2d.Vec2{kbox2d.MakeVec2(-30.0, 0.0), kbox2d.MakeVec2(30.0, 0.0)},
		}},
	})

	for row := 0; row < pyramidRows; row++ {
		y := boxHalf + float64(row)*2.0*boxHalf
		x0 := -float64(pyramidRows-row-1) * boxHalf * 1.1
		for i := 0; i < pyramidRows-row; i++ {
			def.Bodies = append(def.Bodies, kbox2d.BodySceneDef{
				Type:     kbox2d.DynamicBody,
				Position: kbox2d.MakeVec2(x0+float64(i)*2.0*boxHalf*1.1, y),
				Fixtures: []kbox2d.FixtureSceneDef{{
					Kind:       "box",
					HalfWidth:  boxHalf,
					HalfHeight: boxHalf,
					Density:    1.0,
				}},
			})
		}
	}

	def.Bodies = append(def.Bodies, kbox2d.BodySceneDef{
		Name:           "bullet",
		Type:           kbox2d.DynamicBody,
		Position:       kbox2d.MakeVec2(-25.0, 3.0),
		LinearVelocity: kbox2d.MakeVec2(60.0, 0.0),
		Bullet:         true,
		Fixtures: []kbox2d.FixtureSceneDef{{
			Kind:    "circle",
			Radius:  0.25,
			Density: 5.0,
		}},
	})

	return def
}
