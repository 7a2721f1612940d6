package dynamo

import "github.com/san-kum/blocksim/internal/vec"

// Unity is the stateless identity system: y = u.
type Unity struct {
	shape vec.Shape
}

func NewUnity(shape vec.Shape) *Unity {
	return &Unity{shape: shape}
}

func (u *Unity) StateShape() vec.Shape  { return vec.Leaf(0) }
func (u *Unity) InputShape() vec.Shape  { return u.shape }
func (u *Unity) OutputShape() vec.Shape { return u.shape }

func (u *Unity) Output(_ float64, _, in vec.Vector) (vec.Vector, error) {
	return in, nil
}

func (u *Unity) Derivative(float64, vec.Vector, vec.Vector) (vec.Vector, error) {
	return vec.New(), nil
}

// NewUnityFeedback closes direct in a loop with gain one on the reverse path.
func NewUnityFeedback(direct System, opts ...FeedbackOption) (*NegativeFeedback, error) {
	return NewNegativeFeedback(direct, NewUnity(direct.OutputShape()), opts...)
}
