package shares

import "github.com/shopspring/decimal"

// candidateMaxima are the share counts tried for the largest spender. Four,
// three and two are left out because any fit they produce is also produced,
// scaled up, by eight or nine.
var candidateMaxima = [...]int64{8, 9, 7, 6, 5}

// CostsToShares finds small integer share counts whose ratios best match the
// given per-diner amounts. Diners with a non-positive amount get no share and
// every diner with a positive amount gets at least one.
//
// Each candidate maximum m sets the share unit to max(amounts)/m; the
// candidate with the lowest sum of squared residuals wins, and the search
// stops as soon as the residual falls under total/10000. The winner is then
// reduced by the GCD of its counts.
func CostsToShares(amounts [MaxDiners]decimal.Decimal) [MaxDiners]byte {
	var best [MaxDiners]byte

	highest := decimal.Zero
	total := decimal.Zero
	for _, a := range amounts {
		if !a.IsPositive() {
			continue
		}
		total = total.Add(a)
		if a.GreaterThan(highest) {
			highest = a
		}
	}
	if !highest.IsPositive() {
		return best
	}

	goodEnough := total.Div(decimal.NewFromInt(10000))
	var bestResidual decimal.Decimal
	found := false

	for _, m := range candidateMaxima {
		unit := highest.Div(decimal.NewFromInt(m))

		var candidate [MaxDiners]byte
		residual := decimal.Zero
		for i, a := range amounts {
			if !a.IsPositive() {
				continue
			}
			n := a.Div(unit).Round(0).IntPart()
			if n < 1 {
				n = 1
			}
			if n > m {
				n = m
			}
			candidate[i] = byte(n)
			diff := a.Sub(unit.Mul(decimal.NewFromInt(n)))
			residual = residual.Add(diff.Mul(diff))
		}

		if !found || residual.LessThan(bestResidual) {
			best = candidate
			bestResidual = residual
			found = true
		}
		if bestResidual.LessThan(goodEnough) {
			break
		}
	}

	return simplify(best)
}

// Apply sets the ledger to the given share counts.
func (l *Ledger) Apply(counts [MaxDiners]byte) Change {
	var change Change
	for i, n := range counts {
		c, err := l.Set(DinerAt(i), int(n))
		if err != nil {
			continue
		}
		change |= c
	}
	return change
}

// simplify divides every count by the greatest common divisor of the nonzero
// counts.
func simplify(counts [MaxDiners]byte) [MaxDiners]byte {
	g := 0
	for _, n := range counts {
		if n > 0 {
			g = gcd(g, int(n))
		}
	}
	if g <= 1 {
		return counts
	}
	for i := range counts {
		counts[i] = byte(int(counts[i]) / g)
	}
	return counts
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
