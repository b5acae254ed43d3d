package kbox2d

import (
	"os"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

/// SceneDef is the YAML description of a set of bodies, their fixtures and
/// the joints between them. It is only a loader over the public API.
type SceneDef struct {
	Name   string          `yaml:"name,omitempty"`
	Bodies []BodySceneDef  `yaml:"bodies"`
	Joints []JointSceneDef `yaml:"joints,omitempty"`
}

/// BodySceneDef mirrors BodyDef. Unset optional fields keep the BodyDef
/// defaults.
type BodySceneDef struct {
	Name            string   `yaml:"name,omitempty"`
	Type            BodyType `yaml:"type"`
	Position        Vec2     `yaml:"position"`
	Angle           float64  `yaml:"angle,omitempty"`
	LinearVelocity  Vec2     `yaml:"linear_velocity,omitempty"`
	AngularVelocity float64  `yaml:"angular_velocity,omitempty"`
	LinearDamping   float64  `yaml:"linear_damping,omitempty"`
	AngularDamping  float64  `yaml:"angular_damping,omitempty"`
	AllowSleep      *bool    `yaml:"allow_sleep,omitempty"`
	Awake           *bool    `yaml:"awake,omitempty"`
	Active          *bool    `yaml:"active,omitempty"`
	FixedRotation   bool     `yaml:"fixed_rotation,omitempty"`
	Bullet          bool     `yaml:"bullet,omitempty"`
	GravityScale    *float64 `yaml:"gravity_scale,omitempty"`

	Fixtures []FixtureSceneDef `yaml:"fixtures"`
}

/// FixtureSceneDef describes one fixture. Kind is one of circle, box,
/// polygon, edge, chain or loop.
type FixtureSceneDef struct {
	Kind string `yaml:"shape"`

	// circle
	Center Vec2    `yaml:"center,omitempty"`
	Radius float64 `yaml:"radius,omitempty"`

	// box; Center and Angle orient it in the body frame
	HalfWidth  float64 `yaml:"half_width,omitempty"`
	HalfHeight float64 `yaml:"half_height,omitempty"`
	Angle      float64 `yaml:"angle,omitempty"`

	// polygon, edge, chain, loop
	Vertices []Vec2 `yaml:"vertices,omitempty"`

	Density     float64  `yaml:"density,omitempty"`
	Friction    *float64 `yaml:"friction,omitempty"`
	Restitution float64  `yaml:"restitution,omitempty"`
	IsSensor    bool     `yaml:"sensor,omitempty"`
	Filter      *Filter  `yaml:"filter,omitempty"`
}

/// JointSceneDef describes a joint between two bodies given by their index
/// in SceneDef.Bodies. Kind is one of distance, revolute, weld or friction.
/// Anchor is the world anchor; distance joints also use AnchorB.
type JointSceneDef struct {
	Kind             string `yaml:"type"`
	IndexA           int    `yaml:"body_a"`
	IndexB           int    `yaml:"body_b"`
	Anchor           Vec2   `yaml:"anchor"`
	AnchorB          Vec2   `yaml:"anchor_b,omitempty"`
	CollideConnected bool   `yaml:"collide_connected,omitempty"`

	FrequencyHz  float64 `yaml:"frequency_hz,omitempty"`
	DampingRatio float64 `yaml:"damping_ratio,omitempty"`

	EnableLimit    bool    `yaml:"enable_limit,omitempty"`
	LowerAngle     float64 `yaml:"lower_angle,omitempty"`
	UpperAngle     float64 `yaml:"upper_angle,omitempty"`
	EnableMotor    bool    `yaml:"enable_motor,omitempty"`
	MotorSpeed     float64 `yaml:"motor_speed,omitempty"`
	MaxMotorTorque float64 `yaml:"max_motor_torque,omitempty"`

	MaxForce  float64 `yaml:"max_force,omitempty"`
	MaxTorque float64 `yaml:"max_torque,omitempty"`
}

/// Scene is the result of BuildScene.
type Scene struct {
	Bodies []*Body
	Joints []Joint

	byName map[string]*Body
}

/// Body returns the body with the given scene name, or nil.
func (s *Scene) Body(name string) *Body {
	return s.byName[name]
}

func (t BodyType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *BodyType) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "static", "":
		*t = StaticBody
	case "kinematic":
		*t = KinematicBody
	case "dynamic":
		*t = DynamicBody
	default:
		return errors.Errorf("line %d: unknown body type %q", value.Line, value.Value)
	}
	return nil
}

/// ParseScene decodes a YAML scene.
func ParseScene(data []byte) (SceneDef, error) {
	var def SceneDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return SceneDef{}, errors.Wrap(err, "kbox2d: parse scene")
	}
	return def, nil
}

/// LoadScene reads and decodes a YAML scene file.
func LoadScene(path string) (SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SceneDef{}, errors.Wrapf(err, "kbox2d: read scene %s", path)
	}

	def, err := ParseScene(data)
	return def, errors.Wrap(err, path)
}

/// MarshalScene encodes a scene as YAML.
func MarshalScene(def SceneDef) ([]byte, error) {
	data, err := yaml.Marshal(def)
	return data, errors.Wrap(err, "kbox2d: encode scene")
}

var sceneCopyOption = copier.Option{IgnoreEmpty: true}

// bodyDef overlays the scene values on the BodyDef defaults.
func (sd *BodySceneDef) bodyDef() (BodyDef, error) {
	bd := MakeBodyDef()
	if err := copier.CopyWithOption(&bd, sd, sceneCopyOption); err != nil {
		return bd, err
	}
	bd.UserData = sd.Name
	return bd, nil
}

func (sd *FixtureSceneDef) fixtureDef() (FixtureDef, error) {
	fd := MakeFixtureDef()
	if err := copier.CopyWithOption(&fd, sd, sceneCopyOption); err != nil {
		return fd, err
	}

	shape, err := sd.shape()
	if err != nil {
		return fd, err
	}
	fd.Shape = shape
	return fd, nil
}

func (sd *FixtureSceneDef) shape() (Shape, error) {
	switch strings.ToLower(sd.Kind) {
	case "circle":
		return NewCircleShape(sd.Center, sd.Radius)

	case "box":
		poly := newPolygonShape()
		poly.SetAsOrientedBox(sd.HalfWidth, sd.HalfHeight, sd.Center, sd.Angle)
		if err := poly.Validate(); err != nil {
			return nil, err
		}
		return poly, nil

	case "polygon":
		return NewPolygonShape(sd.Vertices)

	case "edge":
		if len(sd.Vertices) != 2 {
			return nil, invalidShape(EdgeShapeKind, "needs 2 vertices, got %d", len(sd.Vertices))
		}
		return NewEdgeShape(sd.Vertices[0], sd.Vertices[1])

	case "chain":
		return NewChain(sd.Vertices)

	case "loop":
		return NewChainLoop(sd.Vertices)
	}

	return nil, errors.Errorf("unknown shape %q", sd.Kind)
}

func (sd *JointSceneDef) jointDef(bodies []*Body) (JointDefinition, error) {
	if sd.IndexA < 0 || sd.IndexA >= len(bodies) || sd.IndexB < 0 || sd.IndexB >= len(bodies) {
		return nil, errors.Errorf("body index %d/%d out of range", sd.IndexA, sd.IndexB)
	}
	if sd.IndexA == sd.IndexB {
		return nil, errors.Errorf("joint between body %d and itself", sd.IndexA)
	}

	bodyA := bodies[sd.IndexA]
	bodyB := bodies[sd.IndexB]

	var def JointDefinition
	switch strings.ToLower(sd.Kind) {
	case "distance":
		d := MakeDistanceJointDef()
		d.Initialize(bodyA, bodyB, sd.Anchor, sd.AnchorB)
		def = &d

	case "revolute":
		d := MakeRevoluteJointDef()
		d.Initialize(bodyA, bodyB, sd.Anchor)
		def = &d

	case "weld":
		d := MakeWeldJointDef()
		d.Initialize(bodyA, bodyB, sd.Anchor)
		def = &d

	case "friction":
		d := MakeFrictionJointDef()
		d.Initialize(bodyA, bodyB, sd.Anchor)
		def = &d

	default:
		return nil, errors.Errorf("unknown joint type %q", sd.Kind)
	}

	// Tuning fields share their names with the definitions.
	if err := copier.CopyWithOption(def, sd, sceneCopyOption); err != nil {
		return nil, err
	}
	def.jointDef().CollideConnected = sd.CollideConnected

	return def, nil
}

/// BuildScene creates the scene's bodies, fixtures and joints in w, in file
/// order. On error the objects created so far stay in the world.
func BuildScene(w *World, def SceneDef) (*Scene, error) {
	scene := &Scene{byName: make(map[string]*Body)}

	for i := range def.Bodies {
		sd := &def.Bodies[i]

		bd, err := sd.bodyDef()
		if err != nil {
			return scene, errors.Wrapf(err, "kbox2d: scene body %d", i)
		}

		body := w.CreateBody(&bd)
		scene.Bodies = append(scene.Bodies, body)
		if sd.Name != "" {
			scene.byName[sd.Name] = body
		}

		for j := range sd.Fixtures {
			fd, err := sd.Fixtures[j].fixtureDef()
			if err != nil {
				return scene, errors.Wrapf(err, "kbox2d: scene body %d fixture %d", i, j)
			}

			if _, err := body.CreateFixtureFromDef(&fd); err != nil {
				return scene, errors.Wrapf(err, "kbox2d: scene body %d fixture %d", i, j)
			}
		}
	}

	for i := range def.Joints {
		jd, err := def.Joints[i].jointDef(scene.Bodies)
		if err != nil {
			return scene, errors.Wrapf(err, "kbox2d: scene joint %d", i)
		}
		scene.Joints = append(scene.Joints, w.CreateJoint(jd))
	}

	return scene, nil
}
