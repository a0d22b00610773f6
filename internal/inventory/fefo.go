package inventory

import "sort"

// allocation is one step of a FEFO plan: deduct Deduct units from Batch,
// leaving Remaining.
type allocation struct {
	Batch     Batch
	Deduct    int64
	Remaining int64
}

// sortFEFO orders batches earliest expiry first with undated batches last.
// Batches sharing an expiry date fall back to creation order. The sort is
// stable so equal batches keep their input order.
func sortFEFO(batches []Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	})
}

// planAllocation greedily walks the batches in FEFO order and drains each one
// before moving to the next. The caller must have verified that the combined
// stock covers requested; the plan stops as soon as requested is satisfied.
func planAllocation(batches []Batch, requested int64) []allocation {
	sortFEFO(batches)

	plan := make([]allocation, 0, 2)
	remaining := requested
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.Quantity <= 0 {
			continue
		}
		deduct := b.Quantity
		if deduct > remaining {
			deduct = remaining
		}
		plan = append(plan, allocation{
			Batch:     b,
			Deduct:    deduct,
			Remaining: b.Quantity - deduct,
		})
		remaining -= deduct
	}
	return plan
}
