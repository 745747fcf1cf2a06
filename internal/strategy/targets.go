package strategy

import (
	"smc-backtester/internal/smc"
)

// targetResolver is one tier of the take-profit resolution chain. It
// returns (0, false) when its tier cannot produce a target.
type targetResolver func(ctx *Context, dir Direction, entry, risk float64) (float64, bool)

// Target resolution runs tiers in order: the nearest opposing liquidity
// zone, then the nearest opposing swing point, then a fixed R-multiple.
// Each tier is independently testable; the fixed tier always resolves.
var targetChain = []targetResolver{
	liquidityTarget,
	swingTarget,
	fixedRTarget(2.0),
}

// ResolveTarget walks the chain and returns the first resolvable target
func ResolveTarget(ctx *Context, dir Direction, entry, risk float64) float64 {
	for _, tier := range targetChain {
		if tp, ok := tier(ctx, dir, entry, risk); ok {
			return tp
		}
	}
	// Unreachable: the fixed tier always resolves.
	return entry
}

// liquidityTarget aims at the nearest unswept opposing liquidity zone that
// lies at least one risk unit past the entry.
func liquidityTarget(ctx *Context, dir Direction, entry, risk float64) (float64, bool) {
	if ctx.Analysis == nil {
		return 0, false
	}
	zones := ctx.Analysis.MTF.LiquidityZones

	var best float64
	found := false
	for _, z := range zones {
		if z.IsSwept {
			continue
		}
		if dir == Long && z.Type == smc.BuySideLiquidity && z.Price >= entry+risk {
			if !found || z.Price < best {
				best = z.Price
				found = true
			}
		}
		if dir == Short && z.Type == smc.SellSideLiquidity && z.Price <= entry-risk {
			if !found || z.Price > best {
				best = z.Price
				found = true
			}
		}
	}
	return best, found
}

// swingTarget aims at the nearest opposing MTF swing point past the entry
func swingTarget(ctx *Context, dir Direction, entry, risk float64) (float64, bool) {
	if ctx.Analysis == nil {
		return 0, false
	}
	points := ctx.Analysis.MTF.Structure.SwingPoints

	var best float64
	found := false
	for _, p := range points {
		if dir == Long && p.Type == smc.SwingHigh && p.Price >= entry+risk {
			if !found || p.Price < best {
				best = p.Price
				found = true
			}
		}
		if dir == Short && p.Type == smc.SwingLow && p.Price <= entry-risk {
			if !found || p.Price > best {
				best = p.Price
				found = true
			}
		}
	}
	return best, found
}

// fixedRTarget produces a target at a fixed multiple of the risk
func fixedRTarget(r float64) targetResolver {
	return func(_ *Context, dir Direction, entry, risk float64) (float64, bool) {
		if risk <= 0 {
			return 0, false
		}
		if dir == Long {
			return entry + risk*r, true
		}
		return entry - risk*r, true
	}
}
