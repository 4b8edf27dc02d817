package chain

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: the ATM window always contains the ATM strike, never exceeds
// window+1 strikes, and stays ascending within the original grid.
func TestProperty_ATMWindowInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	gridGen := gen.SliceOfN(25, gen.Float64Range(5, 1000)).Map(func(s []float64) []float64 {
		sort.Float64s(s)
		return s
	})

	properties.Property("window contains ATM and respects bounds", prop.ForAll(
		func(strikes []float64, price float64, w int) bool {
			if len(strikes) == 0 {
				return true
			}
			atm := atmIndex(strikes, price)
			selected := window(strikes, atm, w)

			if len(selected) == 0 || len(selected) > w+1 {
				return false
			}

			// The ATM strike must be inside the window.
			atmStrike := strikes[atm]
			found := false
			for _, s := range selected {
				if s == atmStrike {
					found = true
					break
				}
			}
			if !found {
				return false
			}

			// Window stays ascending.
			for i := 1; i < len(selected); i++ {
				if selected[i] < selected[i-1] {
					return false
				}
			}
			return true
		},
		gridGen,
		gen.Float64Range(1, 1200),
		gen.IntRange(1, 30),
	))

	properties.Property("ATM strike minimizes distance to price", prop.ForAll(
		func(strikes []float64, price float64) bool {
			if len(strikes) == 0 {
				return true
			}
			atm := atmIndex(strikes, price)
			best := math.Abs(strikes[atm] - price)
			for _, s := range strikes {
				if math.Abs(s-price) < best {
					return false
				}
			}
			return true
		},
		gridGen,
		gen.Float64Range(1, 1200),
	))

	properties.TestingRun(t)
}
