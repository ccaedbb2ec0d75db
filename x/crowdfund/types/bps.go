package types

import (
	"cosmossdk.io/math"
)

// MaxBps is the basis-point scale: 10000 bps = 100%.
const MaxBps = int64(10000)

// ValidBps reports whether bps is inside the [0, 10000] range.
func ValidBps(bps int64) bool {
	return bps >= 0 && bps <= MaxBps
}

// EffectiveFeeBps composes a base fee with a discount:
//
//	effective = base - floor(base * discount / 10000)
//
// Subtraction saturates at zero so a rounding quirk can never yield a
// negative fee rate. Inputs are expected to be in [0, 10000]; the registry
// validates them before persisting.
func EffectiveFeeBps(baseBps, discountBps int64) int64 {
	reduction := baseBps * discountBps / MaxBps
	if reduction >= baseBps {
		return 0
	}
	return baseBps - reduction
}

// SplitFee splits a non-negative amount into fee and net parts at the given
// effective rate. The fee rounds down (in the contributor's favor) and
// fee + net == amount holds exactly. math.Int is big-int backed, so the
// amount * bps intermediate cannot overflow.
func SplitFee(amount math.Int, effectiveBps int64) (fee, net math.Int) {
	if effectiveBps <= 0 || amount.IsZero() {
		return math.ZeroInt(), amount
	}
	fee = amount.MulRaw(effectiveBps).QuoRaw(MaxBps)
	net = amount.Sub(fee)
	return fee, net
}
