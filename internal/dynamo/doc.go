// Package dynamo defines the continuous-time dynamical system interface and
// the composition algebra built on it.
//
//   - [System]: derivative and output of a state-space model, dx/dt = f(t, x, u),
//     y = g(t, x, u)
//   - [Series]: output of the first system drives the second
//   - [Parallel]: two independent systems side by side
//   - [NegativeFeedback]: closed loop with an implicit algebraic loop resolved
//     by a root finder
//   - [Unity]: identity pass-through, the reverse path of unity feedback
//
// Every composite is itself a System, so diagrams nest arbitrarily. A
// composite's state is the [vec.Concat] of its children's states.
//
// # Example
//
//	plant := models.NewSecondOrder(1, 1)
//	loop, err := dynamo.NewUnityFeedback(plant)
//	if err != nil {
//		return err
//	}
//	y, err := loop.Output(0, vec.Zeros(loop.StateShape()), vec.New(1))
//
// # Thread Safety
//
// Systems hold no mutable state; every method may be called concurrently.
// State is owned by the caller and threaded through each call.
package dynamo
