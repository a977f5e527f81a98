package model

import (
	"strconv"
	"time"

	"duel/internal/controls"
)

type Suit int32

const (
	Diamonds Suit = iota
	Hearts
	Clubs
	Spades
)

// Red reports the colour class used for active-pile stacking.
func (s Suit) Red() bool {
	return s < 2
}

func (s Suit) Letter() string {
	switch s {
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Clubs:
		return "C"
	default:
		return "S"
	}
}

// Selection is the highlight state of a card.
type Selection int32

const (
	SelectedFirst  Selection = 0
	SelectedSecond Selection = 1 // reserved
	Unselected     Selection = 2
)

// EmptyRank marks a foundation placeholder with no card on it yet.
const EmptyRank = -1

type Card struct {
	Suit      Suit      `json:"suit"`
	Rank      int32     `json:"rank"`
	Selection Selection `json:"selection"`
	Owner     int32     `json:"owner"` // player number that dealt the card
}

// String renders the card the way the table shows it: "D A", "H 10", "S K".
// A foundation placeholder shows only its suit.
func (c Card) String() string {
	s := c.Suit.Letter() + " "
	switch c.Rank {
	case 12:
		return s + "K"
	case 11:
		return s + "Q"
	case 10:
		return s + "J"
	case 0:
		return s + "A"
	case EmptyRank:
		return s
	default:
		return s + strconv.Itoa(int(c.Rank)+1)
	}
}

type Vec2 struct {
	X, Y float32
}

type Vec3 struct {
	X, Y, Z float32
}

// Pile is an ordered stack of cards; the top is the last element.
type Pile []Card

// Top returns a pointer to the top card.
func (p Pile) Top() (*Card, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return &p[len(p)-1], true
}

func (p *Pile) Push(c Card) {
	*p = append(*p, c)
}

func (p *Pile) Pop() (Card, bool) {
	n := len(*p)
	if n == 0 {
		return Card{}, false
	}
	c := (*p)[n-1]
	*p = (*p)[:n-1]
	return c, true
}

type Player struct {
	Name     string `json:"name"`
	Number   int32  `json:"-"`
	Position Vec2   `json:"position"`
	Velocity Vec2   `json:"velocity"`
	Color    Vec3   `json:"color"`

	Pos   Pile `json:"pos"`
	Neg   Pile `json:"neg"`
	One   Pile `json:"one"`
	Two   Pile `json:"two"`
	Three Pile `json:"three"`
	Four  Pile `json:"four"`

	// Foundations is indexed by Suit: D, H, C, S.
	Foundations [4]Card `json:"foundations"`

	Score  int32 `json:"score"`
	PosPos int32 `json:"posPos"` // cursor into Pos
	Done   bool  `json:"done"`

	// Move selection scratch; never sent over the wire.
	First  Slot `json:"-"`
	Second Slot `json:"-"`

	Controls controls.Controls `json:"-"`
}

// SessionSummary is one live connection as listed by the session store.
type SessionSummary struct {
	ID          string    `json:"id"`
	PlayerName  string    `json:"playerName"`
	RemoteAddr  string    `json:"remoteAddr"`
	Score       int       `json:"score"`
	Done        bool      `json:"done"`
	ConnectedAt time.Time `json:"connectedAt"`
}
