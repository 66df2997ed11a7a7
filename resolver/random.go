package resolver

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/eumel8/mlab-ns/types"
)

// Random picks a candidate uniformly at random. Generators come from a
// pool so concurrent queries don't contend on one lock.
type Random struct {
	*Base
	pool *sync.Pool
}

func NewRandom(base *Base) *Random {
	return &Random{
		Base: base,
		pool: &sync.Pool{
			New: func() interface{} {
				return rand.New(rand.NewPCG(seed(), seed()))
			},
		},
	}
}

func seed() uint64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint64(b[:])
}

func (p *Random) Name() string { return PolicyRandom }

func (p *Random) Resolve(ctx context.Context, q *Query) (*types.SliverTool, error) {
	return p.resolve(ctx, q, randomSelector{p.pool})
}

type randomSelector struct {
	pool *sync.Pool
}

func (randomSelector) name() string { return PolicyRandom }

func (s randomSelector) choose(q *Query, sl []types.SliverTool) *types.SliverTool {
	r := s.pool.Get().(*rand.Rand)
	defer s.pool.Put(r)
	return &sl[r.IntN(len(sl))]
}
