package game

import (
	"fmt"

	"duel/internal/model"
	"duel/internal/protocol"
)

// MaxNameLen is the longest name the State message carries; longer names
// are truncated.
const MaxNameLen = 255

// SendState appends a State message with every player to buf. self, if
// non-nil, is written first so the receiving client finds its own record
// at the head of the list.
func (g *Game) SendState(buf *[]byte, self *model.Player) error {
	if len(g.players) > 255 {
		return fmt.Errorf("state: %d players: %w", len(g.players), protocol.ErrTooMany)
	}
	if self != nil && !g.has(self) {
		return ErrUnknownPlayer
	}

	e := protocol.NewEncoder(*buf)
	mark := e.Begin(protocol.MessageState)
	e.WriteUint8(uint8(len(g.players)))
	if self != nil {
		if err := writePlayer(e, self); err != nil {
			return err
		}
	}
	for _, p := range g.players {
		if p == self {
			continue
		}
		if err := writePlayer(e, p); err != nil {
			return err
		}
	}
	if err := e.Finish(mark); err != nil {
		return err
	}
	*buf = e.Bytes()
	return nil
}

// RecvState replaces the player list with the State message at the front
// of buf. The list is left untouched unless the whole message decodes.
func (g *Game) RecvState(buf *[]byte) (bool, error) {
	var players []*model.Player
	res, err := protocol.TryParse(buf, protocol.MessageState, func(d *protocol.Decoder) error {
		count, err := d.ReadUint8()
		if err != nil {
			return err
		}
		players = make([]*model.Player, 0, count)
		for i := 0; i < int(count); i++ {
			p, err := readPlayer(d)
			if err != nil {
				return fmt.Errorf("player %d: %w", i, err)
			}
			players = append(players, p)
		}
		return nil
	})
	if res != protocol.Consumed {
		return false, err
	}
	g.players = players
	return true, nil
}

func (g *Game) has(p *model.Player) bool {
	for _, q := range g.players {
		if q == p {
			return true
		}
	}
	return false
}

func writePlayer(e *protocol.Encoder, p *model.Player) error {
	writeVec2(e, p.Position)
	writeVec2(e, p.Velocity)
	e.WriteFloat32(p.Color.X)
	e.WriteFloat32(p.Color.Y)
	e.WriteFloat32(p.Color.Z)

	name := p.Name
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	e.WriteUint8(uint8(len(name)))
	e.WriteBytes([]byte(name))

	for _, pile := range p.Piles() {
		if len(*pile) > 255 {
			return fmt.Errorf("state: pile of %d cards: %w", len(*pile), protocol.ErrTooMany)
		}
		e.WriteUint8(uint8(len(*pile)))
		for _, c := range *pile {
			writeCard(e, c)
		}
	}

	for _, c := range p.Foundations {
		writeCard(e, c)
	}
	e.WriteInt32(p.Score)
	e.WriteInt32(p.PosPos)
	e.WriteBool(p.Done)
	return nil
}

func readPlayer(d *protocol.Decoder) (*model.Player, error) {
	p := &model.Player{}
	var err error

	if p.Position, err = readVec2(d); err != nil {
		return nil, err
	}
	if p.Velocity, err = readVec2(d); err != nil {
		return nil, err
	}
	if p.Color.X, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	if p.Color.Y, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	if p.Color.Z, err = d.ReadFloat32(); err != nil {
		return nil, err
	}

	nameLen, err := d.ReadUint8()
	if err != nil {
		return nil, err
	}
	name, err := d.ReadBytes(int(nameLen))
	if err != nil {
		return nil, err
	}
	p.Name = string(name)

	for _, pile := range p.Piles() {
		n, err := d.ReadUint8()
		if err != nil {
			return nil, err
		}
		cards := make(model.Pile, 0, n)
		for j := 0; j < int(n); j++ {
			c, err := readCard(d)
			if err != nil {
				return nil, err
			}
			cards = append(cards, c)
		}
		*pile = cards
	}

	for i := range p.Foundations {
		if p.Foundations[i], err = readCard(d); err != nil {
			return nil, err
		}
	}
	if p.Score, err = d.ReadInt32(); err != nil {
		return nil, err
	}
	if p.PosPos, err = d.ReadInt32(); err != nil {
		return nil, err
	}
	if p.Done, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return p, nil
}

func writeVec2(e *protocol.Encoder, v model.Vec2) {
	e.WriteFloat32(v.X)
	e.WriteFloat32(v.Y)
}

func readVec2(d *protocol.Decoder) (model.Vec2, error) {
	x, err := d.ReadFloat32()
	if err != nil {
		return model.Vec2{}, err
	}
	y, err := d.ReadFloat32()
	if err != nil {
		return model.Vec2{}, err
	}
	return model.Vec2{X: x, Y: y}, nil
}

// writeCard writes a card as four int32s: suit, rank, selection, owner.
func writeCard(e *protocol.Encoder, c model.Card) {
	e.WriteInt32(int32(c.Suit))
	e.WriteInt32(c.Rank)
	e.WriteInt32(int32(c.Selection))
	e.WriteInt32(c.Owner)
}

func readCard(d *protocol.Decoder) (model.Card, error) {
	var v [4]int32
	for i := range v {
		x, err := d.ReadInt32()
		if err != nil {
			return model.Card{}, err
		}
		v[i] = x
	}
	return model.Card{Suit: model.Suit(v[0]), Rank: v[1], Selection: model.Selection(v[2]), Owner: v[3]}, nil
}
