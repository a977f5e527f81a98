package game

import (
	"duel/internal/model"
)

// Deal sizes.
const (
	DeckSize    = 52
	NegPileSize = 13
	// StartCursor is where the pos pile cursor sits after a deal.
	StartCursor = 3
)

// NewDeck builds the 52 cards of one player's deck, suit by suit, all
// unselected and owned by owner.
func NewDeck(owner int32) []model.Card {
	deck := make([]model.Card, 0, DeckSize)
	for suit := model.Diamonds; suit <= model.Spades; suit++ {
		for rank := int32(0); rank < 13; rank++ {
			deck = append(deck, model.Card{Suit: suit, Rank: rank, Selection: model.Unselected, Owner: owner})
		}
	}
	return deck
}

// DealCards lays a shuffled deck out for p, dealing from the back: 13 cards
// to the neg pile, one to each active pile, the remaining 35 stay in the pos
// pile. Foundations start empty.
func DealCards(p *model.Player, deck []model.Card) {
	pos := model.Pile(append([]model.Card(nil), deck...))

	neg := make(model.Pile, 0, NegPileSize)
	for i := 0; i < NegPileSize; i++ {
		c, _ := pos.Pop()
		neg.Push(c)
	}
	p.Neg = neg

	for _, s := range []model.Slot{model.SlotOne, model.SlotTwo, model.SlotThree, model.SlotFour} {
		c, _ := pos.Pop()
		*p.ActivePile(s) = model.Pile{c}
	}
	p.Pos = pos

	for suit := model.Diamonds; suit <= model.Spades; suit++ {
		p.Foundations[suit] = model.Card{Suit: suit, Rank: model.EmptyRank, Selection: model.Unselected, Owner: p.Number}
	}

	p.Score = 0
	p.PosPos = StartCursor
	p.Done = false
	p.First, p.Second = model.SlotNone, model.SlotNone
}

// CanStack reports whether card may go on an active pile: any card on an
// empty pile, otherwise opposite colour and one rank lower than the top.
func CanStack(card model.Card, pile model.Pile) bool {
	top, ok := pile.Top()
	if !ok {
		return true
	}
	return card.Suit.Red() != top.Suit.Red() && card.Rank == top.Rank-1
}

// CanFound reports whether card may go on a foundation: same suit and one
// rank higher than the card currently there.
func CanFound(card, foundation model.Card) bool {
	return card.Suit == foundation.Suit && card.Rank == foundation.Rank+1
}
