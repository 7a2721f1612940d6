package dynamo_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/models"
	"github.com/san-kum/blocksim/internal/rootfind"
	"github.com/san-kum/blocksim/internal/vec"
)

var errSensor = errors.New("sensor fault")

// faultyOutput wraps a system and fails every Output call.
type faultyOutput struct {
	dynamo.System
}

func (f faultyOutput) Output(float64, vec.Vector, vec.Vector) (vec.Vector, error) {
	return vec.Vector{}, errSensor
}

type countingSolver struct {
	inner rootfind.Solver
	calls int
}

func (c *countingSolver) Solve(f rootfind.Func, y0 []float64) ([]float64, error) {
	c.calls++
	return c.inner.Solve(f, y0)
}

var _ = Describe("NegativeFeedback", func() {
	scalar := func(v vec.Vector) float64 {
		Expect(v.Dim()).To(Equal(1))
		return v.At(0)
	}

	Context("with static gains", func() {
		It("resolves y = 2(1 - y) for direct gain 2 and reverse gain 1", func() {
			fb, err := dynamo.NewNegativeFeedback(models.NewGain(2, 1), models.NewGain(1, 1))
			Expect(err).NotTo(HaveOccurred())

			y, err := fb.Output(0, vec.Zeros(fb.StateShape()), vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 2.0/3.0, 1e-6))
		})

		It("resolves y = 2(1 - 2y) when both paths have gain 2", func() {
			fb, err := dynamo.NewNegativeFeedback(models.NewGain(2, 1), models.NewGain(2, 1))
			Expect(err).NotTo(HaveOccurred())

			y, err := fb.Output(0, vec.Zeros(fb.StateShape()), vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 0.4, 1e-9))
		})

		It("exposes the reverse output and loop error at the resolved point", func() {
			fb, _ := dynamo.NewNegativeFeedback(models.NewGain(2, 1), models.NewGain(2, 1))
			x := vec.Zeros(fb.StateShape())

			rev, err := fb.ReverseOutput(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(rev)).To(BeNumerically("~", 0.8, 1e-9))

			e, err := fb.LoopError(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(e)).To(BeNumerically("~", 0.2, 1e-9))

			loop, err := fb.Resolve(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(loop.Output)).To(BeNumerically("~", 0.4, 1e-9))
		})

		It("resolves loops whose signals are far from unit scale", func() {
			fb, _ := dynamo.NewNegativeFeedback(models.NewGain(2, 1), models.NewGain(1, 1))
			y, err := fb.Output(0, vec.Zeros(fb.StateShape()), vec.New(1e6))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 2e6/3, 1e-6))

			stiff, _ := dynamo.NewUnityFeedback(models.NewGain(1e7, 1))
			y, err = stiff.Output(0, vec.Zeros(stiff.StateShape()), vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 1e7/(1e7+1), 1e-12))
		})

		It("is idempotent for identical arguments", func() {
			fb, _ := dynamo.NewNegativeFeedback(models.NewGain(3, 1), models.NewGain(0.5, 1))
			x := vec.Zeros(fb.StateShape())

			a, err := fb.Output(1, x, vec.New(0.7))
			Expect(err).NotTo(HaveOccurred())
			b, err := fb.Output(1, x, vec.New(0.7))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Equal(b)).To(BeTrue())
		})
	})

	Context("unity feedback", func() {
		It("matches NegativeFeedback with an identity reverse path", func() {
			unity, err := dynamo.NewUnityFeedback(models.NewGain(2, 1))
			Expect(err).NotTo(HaveOccurred())

			y, err := unity.Output(0, vec.Zeros(unity.StateShape()), vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 2.0/3.0, 1e-6))
			Expect(unity.Reverse().StateShape().Dim()).To(BeZero())
		})

		It("drives a second-order plant with the loop error", func() {
			unity, err := dynamo.NewUnityFeedback(models.NewSecondOrder(1, 1))
			Expect(err).NotTo(HaveOccurred())

			x := vec.Concat(vec.New(0.5, 1), vec.New())
			y, err := unity.Output(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 0.5, 1e-12))

			dx, err := unity.Derivative(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(dx.Shape().Equal(unity.StateShape())).To(BeTrue())
			Expect(dx.Flat()).To(HaveLen(2))
			Expect(dx.At(0)).To(BeNumerically("~", 1, 1e-12))
			// -k*0.5 - c*1 + (1 - 0.5)
			Expect(dx.At(1)).To(BeNumerically("~", -1, 1e-9))
		})
	})

	Context("derivative", func() {
		It("evaluates both children at the resolved loop", func() {
			fb, err := dynamo.NewNegativeFeedback(models.NewLag(1, 1), models.NewLag(1, 1))
			Expect(err).NotTo(HaveOccurred())

			x := vec.Concat(vec.New(1), vec.New(2))
			dx, err := fb.Derivative(0, x, vec.New(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(dx.Equal(vec.Concat(vec.New(0), vec.New(-1)))).To(BeTrue())
		})
	})

	Context("construction", func() {
		It("rejects a reverse path whose input does not match the direct output", func() {
			_, err := dynamo.NewNegativeFeedback(models.NewGain(1, 2), models.NewGain(1, 1))
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))
		})

		It("rejects a reverse path whose output does not match the direct input", func() {
			direct := models.NewStatic(2, 1, func(_ float64, u []float64) []float64 {
				return []float64{u[0] + u[1]}
			})
			_, err := dynamo.NewNegativeFeedback(direct, models.NewGain(1, 1))
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))

			var compErr *dynamo.CompositionError
			Expect(errors.As(err, &compErr)).To(BeTrue())
			Expect(compErr.Port).To(ContainSubstring("reverse output"))
		})

		It("rejects unity feedback around a system whose output cannot drive its input", func() {
			direct := models.NewStatic(1, 2, func(_ float64, u []float64) []float64 {
				return []float64{u[0], u[0]}
			})
			_, err := dynamo.NewUnityFeedback(direct)
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))
		})
	})

	Context("failure modes", func() {
		It("reports FeedbackDidNotConverge when the loop has no real solution", func() {
			// y = (0 - y)^2 + 1 has no real root
			direct := models.NewStatic(1, 1, func(_ float64, e []float64) []float64 {
				return []float64{e[0]*e[0] + 1}
			})
			fb, err := dynamo.NewUnityFeedback(direct)
			Expect(err).NotTo(HaveOccurred())

			_, err = fb.Output(0, vec.Zeros(fb.StateShape()), vec.New(0))
			Expect(err).To(MatchError(dynamo.ErrFeedbackDidNotConverge))
			Expect(errors.Is(err, rootfind.ErrNoConvergence)).To(BeTrue())

			_, err = fb.Derivative(0, vec.Zeros(fb.StateShape()), vec.New(0))
			Expect(err).To(MatchError(dynamo.ErrFeedbackDidNotConverge))
		})

		It("propagates child errors unchanged", func() {
			fb, err := dynamo.NewNegativeFeedback(models.NewGain(2, 1), faultyOutput{models.NewGain(1, 1)})
			Expect(err).NotTo(HaveOccurred())

			_, err = fb.Output(0, vec.Zeros(fb.StateShape()), vec.New(1))
			Expect(err).To(MatchError(errSensor))
			Expect(errors.Is(err, dynamo.ErrFeedbackDidNotConverge)).To(BeFalse())
		})

		It("rejects a state that is not split into direct and reverse parts", func() {
			fb, _ := dynamo.NewNegativeFeedback(models.NewLag(1, 1), models.NewLag(1, 1))
			_, err := fb.Output(0, vec.New(1, 2), vec.New(0))
			Expect(err).To(MatchError(vec.ErrShapeMismatch))
		})
	})

	Context("degenerate loops", func() {
		It("resolves a zero-width loop without error", func() {
			fb, err := dynamo.NewUnityFeedback(models.NewGain(2, 0))
			Expect(err).NotTo(HaveOccurred())

			y, err := fb.Output(0, vec.Zeros(fb.StateShape()), vec.New())
			Expect(err).NotTo(HaveOccurred())
			Expect(y.Dim()).To(BeZero())
		})
	})

	Context("solver injection", func() {
		It("uses the configured solver once per Output and Derivative", func() {
			solver := &countingSolver{inner: rootfind.NewNewton()}
			fb, err := dynamo.NewUnityFeedback(models.NewGain(2, 1), dynamo.WithSolver(solver))
			Expect(err).NotTo(HaveOccurred())

			x := vec.Zeros(fb.StateShape())
			_, err = fb.Output(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			_, err = fb.Derivative(0, x, vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(solver.calls).To(Equal(2))
		})
	})

	Context("closure under composition", func() {
		It("can be nested inside a series", func() {
			fb, _ := dynamo.NewUnityFeedback(models.NewGain(2, 1))
			s, err := dynamo.NewSeries(fb, models.NewGain(3, 1))
			Expect(err).NotTo(HaveOccurred())

			y, err := s.Output(0, vec.Zeros(s.StateShape()), vec.New(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(scalar(y)).To(BeNumerically("~", 2, 1e-6))
		})

		It("can close a loop around a parallel pair", func() {
			plant := dynamo.NewParallel(models.NewGain(2, 1), models.NewGain(1, 1), dynamo.Concurrent())
			fb, err := dynamo.NewUnityFeedback(plant)
			Expect(err).NotTo(HaveOccurred())

			u := vec.Concat(vec.New(1), vec.New(1))
			y, err := fb.Output(0, vec.Zeros(fb.StateShape()), u)
			Expect(err).NotTo(HaveOccurred())
			Expect(y.At(0)).To(BeNumerically("~", 2.0/3.0, 1e-6))
			Expect(y.At(1)).To(BeNumerically("~", 0.5, 1e-6))
		})
	})
})
