package resolver

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var monotonicPool = sync.Pool{
	New: func() interface{} {
		var seed int64
		err := binary.Read(cryptorand.Reader, binary.BigEndian, &seed)
		if err != nil {
			seed = time.Now().UnixNano()
		}

		rand := mathrand.New(mathrand.NewSource(seed))
		return ulid.Monotonic(rand, 0)
	},
}

// NewQueryID returns a ULID identifying one query in the logs.
func NewQueryID() string {
	mono := monotonicPool.Get().(*ulid.MonotonicEntropy)
	defer monotonicPool.Put(mono)

	id, err := ulid.New(ulid.Timestamp(time.Now()), mono)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
