package dandelifeon

// ReferenceLayout returns the record 100-generation layout published by
// Cobra1117 in 2016, found with a genetic search:
// https://www.reddit.com/r/botania/comments/5by0jl/optimal_100round_dandelifeon_setup/
//
// It is useful as a warm-start site for the optimizer.
func ReferenceLayout() *Board {
	b, err := New([]Placement{
		BlockedAt(14, 7),
		BlockedAt(14, 12),
		BlockedAt(14, 17),
		BlockedAt(19, 9),
		BlockedAt(19, 15),
		BlockedAt(20, 17),
		BlockedAt(23, 17),

		AliveAt(20, 15),
		AliveAt(21, 12),
		AliveAt(21, 15),
		AliveAt(22, 11),
		AliveAt(22, 12),
		AliveAt(22, 13),
	})
	if err != nil {
		panic(err)
	}
	return b
}
