package engine

// PaidOp is one in-flight paid/unpaid toggle a client has issued but
// the server has not yet confirmed.
type PaidOp struct {
	SeedID string
	Payer  Payer
	Paid   bool
}

// ApplyPending overlays in-flight toggles on a server snapshot,
// returning the seeds as the client should display them. The input
// slice is never mutated; ops that no longer match a seed, or that
// are invalid against it, are skipped rather than failing the render.
func ApplyPending(seeds []Seed, ops []PaidOp) []Seed {
	if len(ops) == 0 {
		return seeds
	}
	out := make([]Seed, len(seeds))
	copy(out, seeds)
	byID := make(map[string]int, len(out))
	for i, s := range out {
		byID[s.ID] = i
	}
	for _, op := range ops {
		i, ok := byID[op.SeedID]
		if !ok {
			continue
		}
		flags, err := ApplyPaid(out[i], op.Payer, op.Paid)
		if err != nil {
			continue
		}
		out[i].Paid = flags
	}
	return out
}

// Prune drops the ops a fresh server snapshot already reflects, so a
// client's pending set shrinks as confirmations arrive instead of
// replaying stale toggles forever.
func Prune(ops []PaidOp, seeds []Seed) []PaidOp {
	byID := make(map[string]Seed, len(seeds))
	for _, s := range seeds {
		byID[s.ID] = s
	}
	var keep []PaidOp
	for _, op := range ops {
		seed, ok := byID[op.SeedID]
		if !ok {
			continue
		}
		if reflected(seed, op) {
			continue
		}
		keep = append(keep, op)
	}
	return keep
}

func reflected(seed Seed, op PaidOp) bool {
	if seed.Source != SourceJoint {
		return seed.Paid.Paid == op.Paid
	}
	switch op.Payer {
	case PayerMe:
		return seed.Paid.PaidMe == op.Paid
	case PayerPartner:
		return seed.Paid.PaidPartner == op.Paid
	case PayerBoth:
		return seed.Paid.PaidMe == op.Paid && seed.Paid.PaidPartner == op.Paid
	}
	return true
}
