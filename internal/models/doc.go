// Package models provides leaf systems for block diagrams: static gains and
// nonlinearities, first and second order linear dynamics, a general linear
// state-space model, a PID controller and a damped pendulum.
//
// All models implement [dynamo.System] and are immutable once constructed.
package models

import (
	"github.com/san-kum/blocksim/internal/vec"
)

func expect(port string, want vec.Shape, v vec.Vector) error {
	if !v.Shape().Equal(want) {
		return &vec.ShapeError{Op: port, Want: want, Got: v.Shape()}
	}
	return nil
}
