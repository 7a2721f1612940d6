package dynamo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/models"
	"github.com/san-kum/blocksim/internal/vec"
)

var _ = Describe("Energy", func() {
	duffing := func() *models.Duffing { return models.NewDuffing(-1, 1, 0.3) }

	It("reaches an energetic block behind a series", func() {
		s, err := dynamo.NewSeries(models.NewGain(0.5, 1), duffing())
		Expect(err).NotTo(HaveOccurred())

		x := vec.Concat(vec.New(), vec.New(1, 0))
		e, ok := dynamo.Energy(s, x)
		Expect(ok).To(BeTrue())
		Expect(e).To(BeNumerically("~", -0.25, 1e-12))
		Expect(s.Energy(x)).To(BeNumerically("~", -0.25, 1e-12))
	})

	It("sums the energetic blocks of a loop and ignores the rest", func() {
		plant := dynamo.NewParallel(models.NewSecondOrder(1, 0), models.NewSecondOrder(4, 0))
		fb, err := dynamo.NewNegativeFeedback(plant, dynamo.NewParallel(models.NewLag(1, 1), models.NewLag(1, 1)))
		Expect(err).NotTo(HaveOccurred())

		// 0.5*1 + 0.5*4*1 from the oscillators, nothing from the lags
		x := vec.Concat(
			vec.Concat(vec.New(0, 1), vec.New(1, 0)),
			vec.Concat(vec.New(7), vec.New(9)),
		)
		e, ok := dynamo.Energy(fb, x)
		Expect(ok).To(BeTrue())
		Expect(e).To(BeNumerically("~", 2.5, 1e-12))
	})

	It("reports nothing for diagrams without energetic blocks", func() {
		fb, _ := dynamo.NewUnityFeedback(models.NewLag(1, 1))
		_, ok := dynamo.Energy(fb, vec.Concat(vec.New(1), vec.New()))
		Expect(ok).To(BeFalse())
	})

	It("rejects a state that does not follow the composition", func() {
		s, _ := dynamo.NewSeries(models.NewGain(0.5, 1), duffing())
		_, ok := dynamo.Energy(s, vec.New(1, 0))
		Expect(ok).To(BeFalse())
	})
})
