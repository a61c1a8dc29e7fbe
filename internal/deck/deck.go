// Package deck generates decks with a tunable bias between the fixed
// base order and a near-uniform shuffle. The bias control is product
// behavior (a visible "fairness slider"), not a cryptographic shuffle,
// and its swap-count formula must be preserved as-is.
package deck

import (
	"github.com/hostcard/pokerroom/internal/dependencies/random"
	"github.com/hostcard/pokerroom/internal/model"
)

const (
	// DeckSize is the number of cards in a full deck
	DeckSize = 52

	// swapsPerPercent scales the bias percentage to a swap count:
	// floor(52 * 5 * bias / 100) random transpositions. At bias 100
	// that is 260 swaps, enough to be statistically close to uniform;
	// at lower values residual base-order bias survives by design.
	swapsPerPercent = DeckSize * 5
)

// Generate returns a fresh 52-card deck randomized according to
// biasPercent in [0, 100]. Bias 0 returns the base order untouched
// (fully host-controlled ordering). Out-of-range values are clamped.
//
// This is deliberately not a Fisher-Yates shuffle: it performs a
// bounded number of uniform transpositions so that entropy scales
// monotonically with the bias setting.
func Generate(biasPercent int, rnd random.Random) []model.Card {
	if biasPercent < 0 {
		biasPercent = 0
	}
	if biasPercent > 100 {
		biasPercent = 100
	}

	cards := model.BaseDeck()
	if biasPercent == 0 {
		return cards
	}

	swaps := swapsPerPercent * biasPercent / 100
	for i := 0; i < swaps; i++ {
		a := rnd.Intn(len(cards))
		b := rnd.Intn(len(cards))
		cards[a], cards[b] = cards[b], cards[a]
	}
	return cards
}

// Split separates a freshly generated deck into the 5 community cards
// (taken from the front) and the remaining draw pile.
func Split(cards []model.Card) (community []model.Card, remaining []model.Card) {
	community = append([]model.Card{}, cards[:5]...)
	remaining = append([]model.Card{}, cards[5:]...)
	return community, remaining
}

// DealHole pops count cards from the tail of the deck, matching the
// original pop semantics. The returned deck shares no backing array
// with the input.
func DealHole(cards []model.Card, count int) (hand []model.Card, remaining []model.Card, err error) {
	if len(cards) < count {
		return nil, nil, model.ErrDeckExhausted
	}
	hand = make([]model.Card, 0, count)
	for i := 0; i < count; i++ {
		hand = append(hand, cards[len(cards)-1-i])
	}
	remaining = append([]model.Card{}, cards[:len(cards)-count]...)
	return hand, remaining, nil
}
