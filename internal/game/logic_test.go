package game

import (
	"reflect"
	"testing"
	"time"

	"duel/internal/controls"
	"duel/internal/model"
)

const tick = time.Second / 30

func card(suit model.Suit, rank int32) model.Card {
	return model.Card{Suit: suit, Rank: rank, Selection: model.Unselected, Owner: 1}
}

// layoutPlayer adds a player with empty foundations and the given piles.
func layoutPlayer(g *Game, neg, one, two model.Pile) *model.Player {
	p := &model.Player{Name: "Player 1", Number: 1, PosPos: StartCursor}
	for suit := model.Diamonds; suit <= model.Spades; suit++ {
		p.Foundations[suit] = model.Card{Suit: suit, Rank: model.EmptyRank, Selection: model.Unselected, Owner: 1}
	}
	p.Neg = neg
	p.One = one
	p.Two = two
	g.players = append(g.players, p)
	return p
}

// tap presses a single button for one tick and releases it again.
func tap(g *Game, p *model.Player, button func(*controls.Controls) *controls.Button) TickReport {
	p.Controls = controls.Controls{}
	b := button(&p.Controls)
	b.Press()
	r := g.Update(tick)
	b.Release()
	return r
}

func key1(c *controls.Controls) *controls.Button    { return &c.One }
func key2(c *controls.Controls) *controls.Button    { return &c.Two }
func key3(c *controls.Controls) *controls.Button    { return &c.Three }
func key7(c *controls.Controls) *controls.Button    { return &c.Seven }
func key0(c *controls.Controls) *controls.Button    { return &c.Zero }
func keyJump(c *controls.Controls) *controls.Button { return &c.Jump }
func keyQuit(c *controls.Controls) *controls.Button { return &c.Quit }

func snapshot(p *model.Player) [6]model.Pile {
	var out [6]model.Pile
	for i, pile := range p.Piles() {
		out[i] = append(model.Pile(nil), *pile...)
	}
	return out
}

func TestSelectDeselectRestoresLayout(t *testing.T) {
	tests := []struct {
		name   string
		button func(*controls.Controls) *controls.Button
		slot   model.Slot
	}{
		{"neg", key1, model.SlotNeg},
		{"active", key2, model.SlotOne},
		{"pos", key0, model.SlotPos},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newSeededGame(3)
			p := g.SpawnPlayer()
			before := snapshot(p)

			tap(g, p, tc.button)
			if p.First != tc.slot {
				t.Fatalf("first = %v, want %v", p.First, tc.slot)
			}
			c, _ := p.SourceCard(tc.slot)
			if c.Selection != model.SelectedFirst {
				t.Errorf("selected card marked %v", c.Selection)
			}

			tap(g, p, tc.button)
			if p.First != model.SlotNone {
				t.Errorf("first = %v after deselect", p.First)
			}
			if after := snapshot(p); !reflect.DeepEqual(before, after) {
				t.Error("layout changed after select and deselect")
			}
		})
	}
}

func TestMoves(t *testing.T) {
	padding := card(model.Clubs, 12)

	tests := []struct {
		name     string
		neg      model.Pile
		one, two model.Pile
		taps     []func(*controls.Controls) *controls.Button
		check    func(t *testing.T, p *model.Player, mv Move)
	}{
		{
			name: "black_five_on_red_six",
			neg:  model.Pile{padding},
			one:  model.Pile{card(model.Hearts, 5)},
			two:  model.Pile{card(model.Spades, 4)},
			taps: []func(*controls.Controls) *controls.Button{key3, key2},
			check: func(t *testing.T, p *model.Player, mv Move) {
				if !mv.OK || mv.From != model.SlotTwo || mv.To != model.SlotOne {
					t.Errorf("move = %+v", mv)
				}
				want := model.Pile{card(model.Hearts, 5), card(model.Spades, 4)}
				if !reflect.DeepEqual(p.One, want) {
					t.Errorf("one = %v, want %v", p.One, want)
				}
				if len(p.Two) != 0 {
					t.Errorf("two = %v, want empty", p.Two)
				}
			},
		},
		{
			name: "red_five_on_red_six",
			neg:  model.Pile{padding},
			one:  model.Pile{card(model.Hearts, 5)},
			two:  model.Pile{card(model.Diamonds, 4)},
			taps: []func(*controls.Controls) *controls.Button{key3, key2},
			check: func(t *testing.T, p *model.Player, mv Move) {
				if mv.OK {
					t.Error("illegal move succeeded")
				}
				if len(p.One) != 1 || len(p.Two) != 1 {
					t.Errorf("piles changed: one=%v two=%v", p.One, p.Two)
				}
				if p.Two[0].Selection != model.Unselected {
					t.Errorf("source still marked %v", p.Two[0].Selection)
				}
			},
		},
		{
			name: "ace_on_empty_foundation",
			neg:  model.Pile{padding, card(model.Hearts, 0)},
			taps: []func(*controls.Controls) *controls.Button{key1, key7},
			check: func(t *testing.T, p *model.Player, mv Move) {
				if !mv.OK {
					t.Fatalf("move = %+v", mv)
				}
				if p.Score != 1 {
					t.Errorf("score = %d, want 1", p.Score)
				}
				if got := p.Foundations[model.Hearts]; got != card(model.Hearts, 0) {
					t.Errorf("hearts foundation = %+v", got)
				}
				if len(p.Neg) != 1 {
					t.Errorf("neg = %v", p.Neg)
				}
			},
		},
		{
			name: "two_on_empty_foundation",
			neg:  model.Pile{padding, card(model.Hearts, 1)},
			taps: []func(*controls.Controls) *controls.Button{key1, key7},
			check: func(t *testing.T, p *model.Player, mv Move) {
				if mv.OK {
					t.Error("illegal move succeeded")
				}
				if p.Score != 0 || p.Foundations[model.Hearts].Rank != model.EmptyRank {
					t.Errorf("score = %d, foundation = %+v", p.Score, p.Foundations[model.Hearts])
				}
				if top, _ := p.Neg.Top(); top.Selection != model.Unselected {
					t.Errorf("source still marked %v", top.Selection)
				}
			},
		},
		{
			name: "neg_onto_empty_active_pile",
			neg:  model.Pile{padding, card(model.Diamonds, 9)},
			two:  model.Pile{card(model.Spades, 3)},
			taps: []func(*controls.Controls) *controls.Button{key1, key2},
			check: func(t *testing.T, p *model.Player, mv Move) {
				if !mv.OK {
					t.Fatalf("move = %+v", mv)
				}
				if !reflect.DeepEqual(p.One, model.Pile{card(model.Diamonds, 9)}) {
					t.Errorf("one = %v", p.One)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := New()
			p := layoutPlayer(g, tc.neg, tc.one, tc.two)

			var r TickReport
			for _, b := range tc.taps {
				r = tap(g, p, b)
			}
			if len(r.Moves) != 1 {
				t.Fatalf("moves = %d, want 1", len(r.Moves))
			}
			if p.First != model.SlotNone || p.Second != model.SlotNone {
				t.Errorf("selection not cleared: %v, %v", p.First, p.Second)
			}
			tc.check(t, p, r.Moves[0])
		})
	}
}

func TestMoveFromPosStepsCursorBack(t *testing.T) {
	g := New()
	p := layoutPlayer(g, model.Pile{card(model.Clubs, 12)}, model.Pile{card(model.Diamonds, 7)}, nil)
	p.Pos = model.Pile{
		card(model.Hearts, 1), card(model.Hearts, 2), card(model.Hearts, 3),
		card(model.Spades, 6), card(model.Hearts, 4),
	}

	tap(g, p, key0)
	tap(g, p, key2)

	if len(p.One) != 2 || p.One[1] != card(model.Spades, 6) {
		t.Fatalf("one = %v", p.One)
	}
	if len(p.Pos) != 4 || p.PosPos != 2 {
		t.Errorf("pos = %v, cursor = %d", p.Pos, p.PosPos)
	}
}

func TestOneActionPerTick(t *testing.T) {
	g := newSeededGame(5)
	p := g.SpawnPlayer()

	p.Controls.Two.Press()
	p.Controls.Three.Press()
	r := g.Update(tick)

	if r.Actions != 1 {
		t.Errorf("actions = %d, want 1", r.Actions)
	}
	if p.First != model.SlotOne || p.Second != model.SlotNone {
		t.Errorf("selection = %v, %v", p.First, p.Second)
	}
	if p.Controls.Two.Downs != 0 || p.Controls.Three.Downs != 0 {
		t.Error("downs not reset after tick")
	}
}

func TestEmptyActivePileIsNotASource(t *testing.T) {
	g := New()
	p := layoutPlayer(g, model.Pile{card(model.Clubs, 12)}, nil, nil)

	r := tap(g, p, key2)
	if r.Actions != 0 || p.First != model.SlotNone {
		t.Errorf("actions = %d, first = %v", r.Actions, p.First)
	}
}

func TestPosSelectionNeedsNegCards(t *testing.T) {
	g := New()
	p := layoutPlayer(g, nil, nil, nil)
	p.Pos = model.Pile{card(model.Hearts, 1), card(model.Hearts, 2), card(model.Hearts, 3), card(model.Hearts, 4)}

	tap(g, p, key0)
	if p.First != model.SlotNone {
		t.Errorf("first = %v, want none", p.First)
	}
}

func TestJumpCursor(t *testing.T) {
	tests := []struct {
		name      string
		pileSize  int
		cursor    int32
		wantAfter int32
	}{
		{"step", 35, 3, 6},
		{"wrap", 35, 33, 3},
		{"last", 35, 31, 34},
		{"short_pile", 3, 1, 2},
		{"single", 1, 0, 0},
		{"empty", 0, 3, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := New()
			p := layoutPlayer(g, model.Pile{card(model.Clubs, 12)}, nil, nil)
			for i := 0; i < tc.pileSize; i++ {
				p.Pos.Push(card(model.Diamonds, int32(i%13)))
			}
			p.PosPos = tc.cursor

			tap(g, p, keyJump)
			if p.PosPos != tc.wantAfter {
				t.Errorf("cursor = %d, want %d", p.PosPos, tc.wantAfter)
			}
		})
	}
}

func TestJumpHeldWhilePosSelected(t *testing.T) {
	g := newSeededGame(9)
	p := g.SpawnPlayer()

	tap(g, p, key0)
	if p.First != model.SlotPos {
		t.Fatalf("first = %v", p.First)
	}
	tap(g, p, keyJump)
	if p.PosPos != StartCursor {
		t.Errorf("cursor moved to %d while its card was selected", p.PosPos)
	}

	// The refused jump leaves the tick to the next pressed button.
	p.Controls = controls.Controls{}
	p.Controls.Jump.Press()
	p.Controls.Zero.Press()
	r := g.Update(tick)
	if r.Actions != 1 || p.First != model.SlotNone {
		t.Errorf("actions = %d, first = %v, want the pos pile deselected", r.Actions, p.First)
	}
	if p.PosPos != StartCursor {
		t.Errorf("cursor = %d, want %d", p.PosPos, StartCursor)
	}
}

func TestNegExhaustionFinishesAndFreezes(t *testing.T) {
	g := New()
	p := layoutPlayer(g, model.Pile{card(model.Hearts, 0)}, model.Pile{card(model.Spades, 5)}, nil)
	other := g.SpawnPlayer()

	tap(g, p, key1)
	r := tap(g, p, key7)
	if !p.Done {
		t.Fatal("player with empty neg pile is not done")
	}
	if len(r.Finished) != 1 || r.Finished[0] != p {
		t.Errorf("finished = %v", r.Finished)
	}
	if !g.Done() {
		t.Error("game not done")
	}

	before := snapshot(other)
	other.Controls.Two.Press()
	r = g.Update(tick)
	if !r.Frozen || r.Actions != 0 {
		t.Errorf("report = %+v, want frozen", r)
	}
	if other.First != model.SlotNone || !reflect.DeepEqual(before, snapshot(other)) {
		t.Error("frozen tick changed the other player")
	}
}

func TestQuitFreezes(t *testing.T) {
	g := newSeededGame(11)
	p := g.SpawnPlayer()
	q := g.SpawnPlayer()

	r := tap(g, q, keyQuit)
	if !r.Frozen || !q.Done {
		t.Fatalf("report = %+v, done = %v", r, q.Done)
	}
	if len(r.Finished) != 1 || r.Finished[0] != q {
		t.Errorf("finished = %v", r.Finished)
	}

	before := snapshot(p)
	r = tap(g, p, key2)
	if !r.Frozen || p.First != model.SlotNone || !reflect.DeepEqual(before, snapshot(p)) {
		t.Error("game kept running after quit")
	}
}
