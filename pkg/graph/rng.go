package graph

// rng is the xorshift128+ generator shared with the server-side generator.
// Its output sequence must not change.
type rng struct {
	x, y uint64
}

func newRNG(seed uint64) *rng {
	return &rng{x: seed, y: seed << 1}
}

func (r *rng) next() uint64 {
	x := r.x
	y := r.y
	r.x = r.y
	x ^= x << 23
	x ^= x >> 17
	x ^= y
	r.y = x + y
	return x
}

// intn returns a value in [0, n). n must be positive.
func (r *rng) intn(n int) int {
	return int(r.next() % uint64(n))
}
