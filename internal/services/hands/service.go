// Package hands resolves showdown winners from community and hole cards.
package hands

import (
	"fmt"
	"log/slog"

	poker "github.com/paulhankin/poker"

	"github.com/hostcard/pokerroom/internal/model"
)

// Service evaluates 7-card hands at showdown
type Service struct {
	logger *slog.Logger
}

// New creates a new hand resolution service
func New(logger *slog.Logger) *Service {
	return &Service{
		logger: logger.With(slog.String("component", "hands")),
	}
}

// Resolve determines the winning hand(s) among the given players.
//
// Players who have folded or do not hold exactly two hole cards are
// ignored. If fewer than 5 community cards are present, or no eligible
// player remains, the result is empty. Ties at the top score produce
// multiple winners in input player order. Resolution never fails stage
// advancement: a hand that cannot be scored is skipped.
func (s *Service) Resolve(community []model.Card, players []*model.Player) []model.Winner {
	if len(community) < 5 {
		return []model.Winner{}
	}

	type scored struct {
		player *model.Player
		score  int16
		desc   string
	}
	var evaluated []scored

	for _, p := range players {
		if p.Status == model.StatusFolded || !p.HasHoleCards() {
			continue
		}

		score, desc, err := s.evalHand(community, p.Hand)
		if err != nil {
			s.logger.Warn("skipping unscorable hand",
				slog.String("player_id", string(p.ID)),
				slog.Any("error", err))
			continue
		}
		evaluated = append(evaluated, scored{player: p, score: score, desc: desc})
	}

	if len(evaluated) == 0 {
		return []model.Winner{}
	}

	best := evaluated[0].score
	for _, e := range evaluated[1:] {
		if e.score > best {
			best = e.score
		}
	}

	winners := make([]model.Winner, 0, 1)
	for _, e := range evaluated {
		if e.score == best {
			winners = append(winners, model.Winner{
				PlayerID:    e.player.ID,
				Name:        e.player.Name,
				Description: e.desc,
			})
		}
	}
	return winners
}

// evalHand scores one player's 7-card hand. The evaluator panics on
// malformed input (e.g. duplicated cards); that is contained here so a
// bad row can never block stage advancement.
func (s *Service) evalHand(community, hole []model.Card) (score int16, desc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hand evaluation panicked: %v", r)
		}
	}()

	hand, err := makeSevenCardHand(community, hole)
	if err != nil {
		return 0, "", err
	}

	score = poker.Eval7(&hand)
	desc, descErr := poker.Describe(hand[:])
	if descErr != nil {
		desc = ""
	}
	return score, desc, nil
}

// makeSevenCardHand converts 5 community plus 2 hole cards into the
// evaluator's card representation.
func makeSevenCardHand(community []model.Card, hole []model.Card) ([7]poker.Card, error) {
	var hand [7]poker.Card
	for i := 0; i < 5; i++ {
		c, err := toEvalCard(community[i])
		if err != nil {
			return [7]poker.Card{}, fmt.Errorf("community card %d: %w", i, err)
		}
		hand[i] = c
	}
	for i := 0; i < 2; i++ {
		c, err := toEvalCard(hole[i])
		if err != nil {
			return [7]poker.Card{}, fmt.Errorf("hole card %d: %w", i, err)
		}
		hand[5+i] = c
	}
	return hand, nil
}

// toEvalCard maps a model card to the evaluator's suit/rank encoding
// (ranks 1-13 with ace low, the evaluator handles wheel straights).
func toEvalCard(c model.Card) (poker.Card, error) {
	var zero poker.Card

	var suit poker.Suit
	switch c.Suit {
	case model.Clubs:
		suit = poker.Club
	case model.Diamonds:
		suit = poker.Diamond
	case model.Hearts:
		suit = poker.Heart
	case model.Spades:
		suit = poker.Spade
	default:
		return zero, fmt.Errorf("unknown suit %q", c.Suit)
	}

	var rank poker.Rank
	switch c.Rank {
	case "A":
		rank = 1
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	case "10":
		rank = 10
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = poker.Rank(c.Rank[0] - '0')
	default:
		return zero, fmt.Errorf("unknown rank %q", c.Rank)
	}

	return poker.MakeCard(suit, rank)
}
