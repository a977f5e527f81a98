package game

import (
	"time"

	"duel/internal/model"
)

// Move is one attempted transfer between two slots.
type Move struct {
	Player *model.Player
	From   model.Slot
	To     model.Slot
	Card   model.Card
	OK     bool
}

// TickReport summarizes what a tick changed.
type TickReport struct {
	// Frozen is set when the game was already over, or became over through
	// a quit, and nothing else was processed.
	Frozen   bool
	Actions  int
	Moves    []Move
	Finished []*model.Player
}

// Update advances the game by one tick using each player's merged controls.
// elapsed is unused by the card rules.
func (g *Game) Update(elapsed time.Duration) TickReport {
	var report TickReport

	frozen := false
	for _, p := range g.players {
		if p.Controls.Quit.Pressed && !p.Done {
			p.Done = true
			report.Finished = append(report.Finished, p)
		}
		frozen = frozen || p.Done
	}
	if frozen {
		report.Frozen = true
		return report
	}

	for _, p := range g.players {
		if applyControls(p) {
			report.Actions++
		}

		if p.First != model.SlotNone && p.Second != model.SlotNone {
			mv := attemptMove(p)
			report.Moves = append(report.Moves, mv)

			if len(p.Neg) == 0 && !p.Done {
				p.Done = true
				report.Finished = append(report.Finished, p)
			}
			p.First, p.Second = model.SlotNone, model.SlotNone
		}

		p.Controls.ResetDowns()
	}
	return report
}

// applyControls fires the first pressed button, in the order jump, 1..9, 0,
// whose action applies. At most one action happens per player per tick.
func applyControls(p *model.Player) bool {
	c := &p.Controls
	if c.Jump.Pressed && advanceCursor(p) {
		return true
	}

	for _, b := range [...]struct {
		pressed bool
		slot    model.Slot
	}{
		{c.One.Pressed, model.SlotNeg},
		{c.Two.Pressed, model.SlotOne},
		{c.Three.Pressed, model.SlotTwo},
		{c.Four.Pressed, model.SlotThree},
		{c.Five.Pressed, model.SlotFour},
		{c.Six.Pressed, model.SlotDiamonds},
		{c.Seven.Pressed, model.SlotHearts},
		{c.Eight.Pressed, model.SlotClubs},
		{c.Nine.Pressed, model.SlotSpades},
		{c.Zero.Pressed, model.SlotPos},
	} {
		if b.pressed && selectSlot(p, b.slot) {
			return true
		}
	}
	return false
}

// advanceCursor steps the pos pile cursor by three, wrapping to three past
// the end and clamping on short piles. Jump does not always advance: it is
// refused while the pos pile is the first selection, and a lower-priority
// button may then act this tick instead.
func advanceCursor(p *model.Player) bool {
	if p.First == model.SlotPos {
		return false
	}
	n := int32(len(p.Pos))
	p.PosPos += 3
	if p.PosPos >= n {
		p.PosPos = StartCursor
	}
	if p.PosPos >= n {
		p.PosPos = n - 1
	}
	if p.PosPos < 0 {
		p.PosPos = 0
	}
	return true
}

func selectSlot(p *model.Player, s model.Slot) bool {
	switch {
	case s.IsStock():
		return toggleStock(p, s)
	case s.IsActive():
		return toggleActive(p, s)
	case s.IsFoundation():
		return chooseFoundation(p, s)
	}
	return false
}

// toggleStock selects or deselects the neg pile top or the pos card under
// the cursor as the move source. Both piles can only be picked while the
// neg pile still has cards.
func toggleStock(p *model.Player, s model.Slot) bool {
	card, ok := p.SourceCard(s)
	if !ok {
		return false
	}
	switch {
	case p.First == model.SlotNone && len(p.Neg) > 0:
		p.First = s
		card.Selection = model.SelectedFirst
		return true
	case p.First == s:
		p.First = model.SlotNone
		card.Selection = model.Unselected
		return true
	}
	return false
}

// toggleActive picks an active pile as source, as destination, or drops
// it as source, in that order of preference.
func toggleActive(p *model.Player, s model.Slot) bool {
	switch {
	case p.First == model.SlotNone:
		top, ok := p.ActivePile(s).Top()
		if !ok {
			return false
		}
		p.First = s
		top.Selection = model.SelectedFirst
		return true
	case p.Second == model.SlotNone && p.First != s:
		p.Second = s
		return true
	case p.First == s:
		if top, ok := p.ActivePile(s).Top(); ok {
			top.Selection = model.Unselected
		}
		p.First = model.SlotNone
		return true
	}
	return false
}

func chooseFoundation(p *model.Player, s model.Slot) bool {
	if p.First != model.SlotNone && p.Second == model.SlotNone {
		p.Second = s
		return true
	}
	return false
}

// attemptMove moves the selected source card onto the selected destination
// if the rules allow it. On failure the source card is only unhighlighted.
func attemptMove(p *model.Player) Move {
	mv := Move{Player: p, From: p.First, To: p.Second}

	src, ok := p.SourceCard(p.First)
	if !ok {
		return mv
	}
	moved := *src
	moved.Selection = model.Unselected
	mv.Card = moved

	switch {
	case p.Second.IsActive():
		dst := p.ActivePile(p.Second)
		if CanStack(moved, *dst) {
			dst.Push(moved)
			mv.OK = true
		}
	case p.Second.IsFoundation():
		f := p.Foundation(p.Second)
		if CanFound(moved, *f) {
			*f = moved
			p.Score++
			mv.OK = true
		}
	}

	if mv.OK {
		p.RemoveSource(p.First)
	} else {
		src.Selection = model.Unselected
	}
	return mv
}
