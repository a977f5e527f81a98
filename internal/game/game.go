package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"duel/internal/model"
)

// DefaultSeed seeds the game's own generator. Deals do not use it.
const DefaultSeed = 0x15466666

var ErrUnknownPlayer = errors.New("game: player not found")

// Shuffler permutes n elements; *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Game owns the authoritative player list. It is not safe for concurrent
// use: a single tick loop drives it.
type Game struct {
	players          []*model.Player
	nextPlayerNumber int32

	rng      *rand.Rand
	shuffler Shuffler
}

type Option func(*Game)

// WithShuffler sets the shuffler used for deals.
func WithShuffler(s Shuffler) Option {
	return func(g *Game) {
		g.shuffler = s
	}
}

// WithSeed reseeds the game's non-gameplay generator.
func WithSeed(seed int64) Option {
	return func(g *Game) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// New constructs a Game. Without WithShuffler, deals are shuffled by a
// wall-clock seeded source and are not reproducible.
func New(opts ...Option) *Game {
	g := &Game{
		rng: rand.New(rand.NewSource(DefaultSeed)),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.shuffler == nil {
		g.shuffler = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Players returns the players in turn order. The slice must not be
// modified; pointers must not be kept across ticks.
func (g *Game) Players() []*model.Player {
	return g.players
}

// SpawnPlayer adds a player with a freshly dealt layout.
func (g *Game) SpawnPlayer() *model.Player {
	g.nextPlayerNumber++
	num := g.nextPlayerNumber

	p := &model.Player{
		Name:   fmt.Sprintf("Player %d", num),
		Number: num,
		Color: model.Vec3{
			X: 0.25 + 0.75*g.rng.Float32(),
			Y: 0.25 + 0.75*g.rng.Float32(),
			Z: 0.25 + 0.75*g.rng.Float32(),
		},
	}

	deck := NewDeck(num)
	g.shuffler.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	DealCards(p, deck)

	g.players = append(g.players, p)
	return p
}

// RemovePlayer drops p from the game. Removing a player that is not in the
// game is a caller bug and returns ErrUnknownPlayer.
func (g *Game) RemovePlayer(p *model.Player) error {
	for i, q := range g.players {
		if q == p {
			g.players = append(g.players[:i], g.players[i+1:]...)
			return nil
		}
	}
	return ErrUnknownPlayer
}

// Done reports whether any player has finished, which freezes the game.
func (g *Game) Done() bool {
	for _, p := range g.players {
		if p.Done {
			return true
		}
	}
	return false
}

// ScoreLine renders the players' scores in list order, e.g. "12 vs. 9".
func ScoreLine(players []*model.Player) string {
	scores := make([]string, len(players))
	for i, p := range players {
		scores[i] = fmt.Sprint(p.Score)
	}
	return strings.Join(scores, " vs. ")
}
