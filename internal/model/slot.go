package model

// Slot names a pile a player can pick from or drop onto. The zero value
// means nothing is selected.
type Slot int8

const (
	SlotNone Slot = iota
	SlotPos
	SlotNeg
	SlotOne
	SlotTwo
	SlotThree
	SlotFour
	SlotDiamonds
	SlotHearts
	SlotClubs
	SlotSpades
)

func (s Slot) String() string {
	switch s {
	case SlotNone:
		return "none"
	case SlotPos:
		return "pos"
	case SlotNeg:
		return "neg"
	case SlotOne:
		return "one"
	case SlotTwo:
		return "two"
	case SlotThree:
		return "three"
	case SlotFour:
		return "four"
	case SlotDiamonds:
		return "D"
	case SlotHearts:
		return "H"
	case SlotClubs:
		return "C"
	case SlotSpades:
		return "S"
	default:
		return "invalid"
	}
}

// IsStock reports whether s is one of the two draw piles.
func (s Slot) IsStock() bool {
	return s == SlotPos || s == SlotNeg
}

// IsActive reports whether s is one of the four tableau piles.
func (s Slot) IsActive() bool {
	return s >= SlotOne && s <= SlotFour
}

// IsFoundation reports whether s is one of the four suit piles.
func (s Slot) IsFoundation() bool {
	return s >= SlotDiamonds && s <= SlotSpades
}

// Suit returns the suit of a foundation slot.
func (s Slot) Suit() Suit {
	return Suit(s - SlotDiamonds)
}

// FoundationSlot returns the slot of the foundation for suit.
func FoundationSlot(suit Suit) Slot {
	return SlotDiamonds + Slot(suit)
}

// ActivePile returns the tableau pile behind s, or nil if s is not active.
func (p *Player) ActivePile(s Slot) *Pile {
	switch s {
	case SlotOne:
		return &p.One
	case SlotTwo:
		return &p.Two
	case SlotThree:
		return &p.Three
	case SlotFour:
		return &p.Four
	}
	return nil
}

// Foundation returns the foundation card behind s, or nil if s is not a foundation.
func (p *Player) Foundation(s Slot) *Card {
	if !s.IsFoundation() {
		return nil
	}
	return &p.Foundations[s.Suit()]
}

// SourceCard returns the card a move from s would take: the card under
// the cursor for the pos pile, the top card otherwise.
func (p *Player) SourceCard(s Slot) (*Card, bool) {
	switch {
	case s == SlotPos:
		if p.PosPos < 0 || int(p.PosPos) >= len(p.Pos) {
			return nil, false
		}
		return &p.Pos[p.PosPos], true
	case s == SlotNeg:
		return p.Neg.Top()
	case s.IsActive():
		return p.ActivePile(s).Top()
	}
	return nil, false
}

// RemoveSource drops the card SourceCard(s) refers to. Removing from the
// pos pile steps the cursor back unless it is already at 0.
func (p *Player) RemoveSource(s Slot) bool {
	switch {
	case s == SlotPos:
		i := int(p.PosPos)
		if i < 0 || i >= len(p.Pos) {
			return false
		}
		p.Pos = append(p.Pos[:i], p.Pos[i+1:]...)
		if p.PosPos != 0 {
			p.PosPos--
		}
		return true
	case s == SlotNeg:
		_, ok := p.Neg.Pop()
		return ok
	case s.IsActive():
		_, ok := p.ActivePile(s).Pop()
		return ok
	}
	return false
}

// Piles returns the six card piles in wire order.
func (p *Player) Piles() [6]*Pile {
	return [6]*Pile{&p.Pos, &p.Neg, &p.One, &p.Two, &p.Three, &p.Four}
}
