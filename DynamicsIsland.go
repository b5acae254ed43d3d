package kbox2d

// Joint position errors are corrected with full nonlinear Gauss-Seidel: the
// position error, Jacobians and effective masses are recomputed for every
// constraint and positions are updated right after each one is solved. The
// loop ends early once every error is below LinearSlop.

// island is a connected group of awake bodies with their contacts and
// joints. The world reuses one island for every flood fill and for the TOI
// sub-steps, so its slices keep their capacity across steps.
type island struct {
	listener ContactListener
	pool     *WorldPool

	bodies   []*Body
	contacts []*Contact
	joints   []Joint

	positions  []Position
	velocities []Velocity

	solver contactSolver
}

func (isl *island) clear() {
	isl.bodies = isl.bodies[:0]
	isl.contacts = isl.contacts[:0]
	isl.joints = isl.joints[:0]
}

func (isl *island) addBody(body *Body) {
	body.islandIndex = len(isl.bodies)
	isl.bodies = append(isl.bodies, body)
}

func (isl *island) addContact(contact *Contact) {
	isl.contacts = append(isl.contacts, contact)
}

func (isl *island) addJoint(joint Joint) {
	isl.joints = append(isl.joints, joint)
}

// prepareState sizes the compact position and velocity arrays.
func (isl *island) prepareState() {
	n := len(isl.bodies)
	if cap(isl.positions) < n {
		isl.positions = make([]Position, n, 2*n)
		isl.velocities = make([]Velocity, n, 2*n)
	}
	isl.positions = isl.positions[:n]
	isl.velocities = isl.velocities[:n]
}

func (isl *island) solverData(step TimeStep) *SolverData {
	return &SolverData{
		Step:       step,
		Positions:  isl.positions,
		Velocities: isl.velocities,
		Pool:       isl.pool,
	}
}

// integratePositions advances the compact positions by the velocities,
// clamping large motion.
func (isl *island) integratePositions(h float64) {
	for i := range isl.positions {
		v, w := clampedStep(isl.velocities[i].V, isl.velocities[i].W, h)

		// Integrate
		isl.positions[i].C = isl.positions[i].C.Add(v.Mul(h))
		isl.positions[i].A += h * w

		isl.velocities[i].V = v
		isl.velocities[i].W = w
	}
}

func (isl *island) solve(profile *Profile, step TimeStep, gravity Vec2, allowSleep bool) {
	timer := MakeTimer()

	h := step.Dt

	isl.prepareState()

	// Integrate velocities and apply damping. Initialize the body state.
	for i, b := range isl.bodies {
		c := b.sweep.C
		a := b.sweep.A
		v := b.linearVelocity
		w := b.angularVelocity

		// Store positions for continuous collision.
		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A

		if b.bodyType == DynamicBody {
			// Integrate velocities.
			v = v.Add(gravity.Mul(b.gravityScale).Add(b.force.Mul(b.invMass)).Mul(h))
			w += h * b.invI * b.torque

			// Apply damping.
			// ODE: dv/dt + c * v = 0
			// Solution: v(t) = v0 * exp(-c * t)
			// Time step: v(t + dt) = v0 * exp(-c * (t + dt)) = v0 * exp(-c * t) * exp(-c * dt) = v * exp(-c * dt)
			// v2 = exp(-c * dt) * v1
			// Pade approximation:
			// v2 = v1 * 1 / (1 + c * dt)
			v = v.Mul(1.0 / (1.0 + h*b.linearDamping))
			w *= 1.0 / (1.0 + h*b.angularDamping)
		}

		isl.positions[i] = Position{C: c, A: a}
		isl.velocities[i] = Velocity{V: v, W: w}
	}

	timer.Reset()

	// Solver data
	solverData := isl.solverData(step)

	// Initialize velocity constraints.
	isl.solver.reset(&contactSolverDef{
		step:       step,
		contacts:   isl.contacts,
		positions:  isl.positions,
		velocities: isl.velocities,
		pool:       isl.pool,
	})
	isl.solver.initializeVelocityConstraints()

	if step.WarmStarting {
		isl.solver.warmStart()
	}

	for _, joint := range isl.joints {
		joint.initVelocityConstraints(solverData)
	}

	profile.SolveInit += timer.Milliseconds()

	// Solve velocity constraints
	timer.Reset()
	for i := 0; i < step.VelocityIterations; i++ {
		for _, joint := range isl.joints {
			joint.solveVelocityConstraints(solverData)
		}

		isl.solver.solveVelocityConstraints()
	}

	// Store impulses for warm starting
	isl.solver.storeImpulses()
	profile.SolveVelocity += timer.Milliseconds()

	// Integrate positions
	isl.integratePositions(h)

	// Solve position constraints
	timer.Reset()
	positionSolved := false
	for i := 0; i < step.PositionIterations; i++ {
		contactsOkay := isl.solver.solvePositionConstraints()

		jointsOkay := true
		for _, joint := range isl.joints {
			jointOkay := joint.solvePositionConstraints(solverData)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			// Exit early if the position errors are small.
			positionSolved = true
			break
		}
	}

	// Copy state buffers back to the bodies
	for i, body := range isl.bodies {
		body.sweep.C = isl.positions[i].C
		body.sweep.A = isl.positions[i].A
		body.linearVelocity = isl.velocities[i].V
		body.angularVelocity = isl.velocities[i].W
		body.synchronizeTransform()
	}

	profile.SolvePosition += timer.Milliseconds()

	isl.report()

	if !allowSleep {
		return
	}

	minSleepTime := MaxFloat

	const linTolSqr = LinearSleepTolerance * LinearSleepTolerance
	const angTolSqr = AngularSleepTolerance * AngularSleepTolerance

	for _, b := range isl.bodies {
		if b.bodyType == StaticBody {
			continue
		}

		if b.flags&bodyAutoSleepFlag == 0 ||
			b.angularVelocity*b.angularVelocity > angTolSqr ||
			b.linearVelocity.Dot(b.linearVelocity) > linTolSqr {
			b.sleepTime = 0.0
			minSleepTime = 0.0
		} else {
			b.sleepTime += h
			if b.sleepTime < minSleepTime {
				minSleepTime = b.sleepTime
			}
		}
	}

	if minSleepTime >= TimeToSleep && positionSolved {
		for _, b := range isl.bodies {
			b.SetAwake(false)
		}
	}
}

// solveTOI resolves the TOI contacts of the two bodies at toiIndexA and
// toiIndexB. Only those two bodies move.
func (isl *island) solveTOI(subStep TimeStep, toiIndexA, toiIndexB int) {
	assert(toiIndexA < len(isl.bodies), "toi index A out of range")
	assert(toiIndexB < len(isl.bodies), "toi index B out of range")

	isl.prepareState()

	// Initialize the body state.
	for i, b := range isl.bodies {
		isl.positions[i] = Position{C: b.sweep.C, A: b.sweep.A}
		isl.velocities[i] = Velocity{V: b.linearVelocity, W: b.angularVelocity}
	}

	isl.solver.reset(&contactSolverDef{
		step:       subStep,
		contacts:   isl.contacts,
		positions:  isl.positions,
		velocities: isl.velocities,
		pool:       isl.pool,
	})

	// Solve position constraints.
	for i := 0; i < subStep.PositionIterations; i++ {
		if isl.solver.solveTOIPositionConstraints(toiIndexA, toiIndexB) {
			break
		}
	}

	// Leap of faith to new safe state.
	isl.bodies[toiIndexA].sweep.C0 = isl.positions[toiIndexA].C
	isl.bodies[toiIndexA].sweep.A0 = isl.positions[toiIndexA].A
	isl.bodies[toiIndexB].sweep.C0 = isl.positions[toiIndexB].C
	isl.bodies[toiIndexB].sweep.A0 = isl.positions[toiIndexB].A

	// No warm starting is needed for TOI events because warm
	// starting impulses were applied in the discrete solver.
	isl.solver.initializeVelocityConstraints()

	// Solve velocity constraints.
	for i := 0; i < subStep.VelocityIterations; i++ {
		isl.solver.solveVelocityConstraints()
	}

	// Don't store the TOI contact forces for warm starting
	// because they can be quite large.

	isl.integratePositions(subStep.Dt)

	// Sync bodies
	for i, body := range isl.bodies {
		body.sweep.C = isl.positions[i].C
		body.sweep.A = isl.positions[i].A
		body.linearVelocity = isl.velocities[i].V
		body.angularVelocity = isl.velocities[i].W
		body.synchronizeTransform()
	}

	isl.report()
}

func (isl *island) report() {
	if isl.listener == nil {
		return
	}

	for i, c := range isl.contacts {
		vc := &isl.solver.velocityConstraints[i]

		impulse := ContactImpulse{Count: vc.pointCount}
		for j := 0; j < vc.pointCount; j++ {
			impulse.NormalImpulses[j] = vc.points[j].normalImpulse
			impulse.TangentImpulses[j] = vc.points[j].tangentImpulse
		}

		isl.listener.PostSolve(c, &impulse)
	}
}
