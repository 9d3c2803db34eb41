package sampling

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Bucket is one labelled weight to apportion against.
type Bucket struct {
	Label  string
	Weight float64
}

// Allocation is the integer quota assigned to a bucket.
type Allocation struct {
	Label string `json:"label"`
	Quota int    `json:"quota"`
}

// ApportionmentResult keeps the input bucket order.
type ApportionmentResult []Allocation

// Total sums the quotas.
func (r ApportionmentResult) Total() int {
	total := 0
	for _, a := range r {
		total += a.Quota
	}
	return total
}

type remainder struct {
	index    int
	fraction decimal.Decimal
}

// rankRemainders orders buckets by descending fractional part; equal
// fractions keep their input order.
func rankRemainders(rs []remainder) {
	sort.SliceStable(rs, func(i, j int) bool {
		if c := rs[i].fraction.Cmp(rs[j].fraction); c != 0 {
			return c > 0
		}
		return rs[i].index < rs[j].index
	})
}

// Apportion distributes total across weights with the largest-remainder
// (Hamilton) method. The returned quotas always sum to total.
func Apportion(total int, weights []float64) ([]int, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: cannot apportion negative total %d", ErrInvalidParameter, total)
	}
	quotas := make([]int, len(weights))
	if len(weights) == 0 {
		if total == 0 {
			return quotas, nil
		}
		return nil, fmt.Errorf("%w: cannot apportion %d units across zero buckets", ErrInvalidParameter, total)
	}

	ws := make([]decimal.Decimal, len(weights))
	sum := decimal.Zero
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrInvalidParameter, i, w)
		}
		ws[i] = decimal.NewFromFloat(w)
		sum = sum.Add(ws[i])
	}
	if total == 0 {
		return quotas, nil
	}
	if sum.IsZero() {
		for i := range ws {
			ws[i] = decimal.NewFromInt(1)
		}
		sum = decimal.NewFromInt(int64(len(ws)))
	}

	t := decimal.NewFromInt(int64(total))
	ranked := make([]remainder, len(ws))
	assigned := 0
	for i, w := range ws {
		share := t.Mul(w).Div(sum)
		base := share.Floor()
		quotas[i] = int(base.IntPart())
		assigned += quotas[i]
		ranked[i] = remainder{index: i, fraction: share.Sub(base)}
	}
	rankRemainders(ranked)

	left := total - assigned
	for k := 0; left > 0; k = (k + 1) % len(ranked) {
		quotas[ranked[k].index]++
		left--
	}
	// Division rounding can push a share over an integer boundary; take the
	// surplus back from the smallest remainders.
	for k := len(ranked) - 1; left < 0; k-- {
		if k < 0 {
			k = len(ranked) - 1
		}
		if idx := ranked[k].index; quotas[idx] > 0 {
			quotas[idx]--
			left++
		}
	}
	return quotas, nil
}

// ApportionBuckets is Apportion over labelled buckets.
func ApportionBuckets(total int, buckets []Bucket) (ApportionmentResult, error) {
	weights := make([]float64, len(buckets))
	for i, b := range buckets {
		weights[i] = b.Weight
	}
	quotas, err := Apportion(total, weights)
	if err != nil {
		return nil, err
	}
	out := make(ApportionmentResult, len(buckets))
	for i, b := range buckets {
		out[i] = Allocation{Label: b.Label, Quota: quotas[i]}
	}
	return out, nil
}
