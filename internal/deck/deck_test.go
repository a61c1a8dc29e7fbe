package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hostcard/pokerroom/internal/model"
)

// seededRandom adapts math/rand to the random dependency so shuffle
// statistics are reproducible across test runs.
type seededRandom struct {
	rng *rand.Rand
}

func newSeededRandom(seed int64) *seededRandom {
	return &seededRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *seededRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rng.Intn(n)
}

func (r *seededRandom) String(length int, alphabet string) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = alphabet[r.rng.Intn(len(alphabet))]
	}
	return string(result)
}

type DeckSuite struct {
	suite.Suite
}

func TestDeckSuite(t *testing.T) {
	suite.Run(t, new(DeckSuite))
}

func (s *DeckSuite) TestGenerateIsCompleteAtEveryBias() {
	rnd := newSeededRandom(1)
	for bias := 0; bias <= 100; bias++ {
		cards := Generate(bias, rnd)
		s.Require().Len(cards, DeckSize, "bias %d", bias)

		seen := make(map[string]bool, DeckSize)
		for _, c := range cards {
			s.False(seen[c.ID], "duplicate card %s at bias %d", c.ID, bias)
			seen[c.ID] = true
		}
	}
}

func (s *DeckSuite) TestGenerateZeroBiasReturnsBaseOrder() {
	rnd := newSeededRandom(1)
	cards := Generate(0, rnd)
	s.Equal(model.BaseDeck(), cards)
}

func (s *DeckSuite) TestGenerateClampsOutOfRangeBias() {
	s.Equal(model.BaseDeck(), Generate(-10, newSeededRandom(1)))

	over := Generate(150, newSeededRandom(1))
	capped := Generate(100, newSeededRandom(1))
	s.Equal(capped, over)
}

func (s *DeckSuite) TestGenerateSwapCountFollowsBias() {
	// Each swap draws exactly two positions, so the number of Intn
	// calls exposes the swap count: floor(52 * 5 * bias / 100).
	for _, tc := range []struct {
		bias  int
		swaps int
	}{
		{1, 2},
		{10, 26},
		{50, 130},
		{100, 260},
	} {
		counter := &countingRandom{}
		Generate(tc.bias, counter)
		s.Equal(tc.swaps, counter.calls/2, "bias %d", tc.bias)
	}
}

type countingRandom struct {
	calls int
}

func (r *countingRandom) Intn(n int) int {
	r.calls++
	return 0
}

func (r *countingRandom) String(length int, alphabet string) string { return "" }

func (s *DeckSuite) TestDisplacementGrowsWithBias() {
	biases := []int{0, 5, 25, 60, 100}
	displacements := make([]float64, len(biases))
	for i, bias := range biases {
		displacements[i] = meanKendallDistance(bias, 80, int64(100+i))
	}

	s.Zero(displacements[0], "bias 0 must equal the base order exactly")
	for i := 1; i < len(displacements); i++ {
		// Allow a small tolerance between adjacent samples; the
		// trend across the range must still be strongly upward.
		s.GreaterOrEqual(displacements[i], displacements[i-1]*0.9,
			"displacement dropped sharply between bias %d and %d", biases[i-1], biases[i])
	}
	s.Greater(displacements[len(displacements)-1], displacements[1],
		"full bias must displace more than near-zero bias")
}

// meanKendallDistance averages the Kendall tau distance from the base
// order over a number of generated decks.
func meanKendallDistance(bias, trials int, seed int64) float64 {
	base := model.BaseDeck()
	position := make(map[string]int, len(base))
	for i, c := range base {
		position[c.ID] = i
	}

	rnd := newSeededRandom(seed)
	total := 0
	for t := 0; t < trials; t++ {
		cards := Generate(bias, rnd)
		for i := 0; i < len(cards); i++ {
			for j := i + 1; j < len(cards); j++ {
				if position[cards[i].ID] > position[cards[j].ID] {
					total++
				}
			}
		}
	}
	return float64(total) / float64(trials)
}

func (s *DeckSuite) TestSplit() {
	cards := model.BaseDeck()
	community, remaining := Split(cards)

	s.Len(community, 5)
	s.Len(remaining, 47)
	s.Equal(cards[:5], community)
	s.Equal(cards[5:], remaining)
}

func (s *DeckSuite) TestDealHolePopsFromTail() {
	cards := model.BaseDeck()
	last := cards[len(cards)-1]
	secondLast := cards[len(cards)-2]

	hand, remaining, err := DealHole(cards, 2)
	s.Require().NoError(err)

	s.Equal([]model.Card{last, secondLast}, hand)
	s.Len(remaining, 50)
	s.NotContains(remaining, last)
	s.NotContains(remaining, secondLast)
}

func (s *DeckSuite) TestDealHoleExhausted() {
	_, _, err := DealHole([]model.Card{model.NewCard(model.Spades, "A")}, 2)
	s.ErrorIs(err, model.ErrDeckExhausted)
}
