// Package ecmath provides the modular arithmetic primitives required by the
// elliptic curve signature math.
package ecmath

import (
	"errors"
	"math/big"
)

// ErrNotInvertible is returned when a modular inverse is requested for
// operands that are not coprime. No inverse exists in that case.
var ErrNotInvertible = errors.New("operands are not coprime, no modular inverse exists")

// Modulo computes x mod m with a result that is always in [0, m). The native
// remainder operator returns negative results for negative operands, which
// is wrong for modular arithmetic: -21 % 4 is -1, but -21 mod 4 is 3. The
// modulus m must be positive.
func Modulo(x, m *big.Int) *big.Int {
	r := new(big.Int).Rem(x, m)
	r.Add(r, m)
	return r.Rem(r, m)
}

// ModularInverse computes t such that (n * t) mod b == 1 using the extended
// euclidean algorithm. Ex: (5 * t) mod 7 == 1 gives t = 3.
//
// The algorithm is carried as an explicit loop rather than recursion so the
// stack stays flat regardless of operand size. Two coefficient pairs are
// maintained, (t1, t2) for the n side and (s1, s2) for the b side. Each step
// divides the larger remainder by the smaller, reduces the larger with the
// sign-correct Modulo, and folds the quotient into that side's pair. When
// one remainder reaches zero the surviving side's first coefficient is the
// inverse, provided the operands were coprime.
func ModularInverse(n, b *big.Int) (*big.Int, error) {
	if b.Sign() <= 0 {
		return nil, ErrNotInvertible
	}

	n0 := new(big.Int).Set(n)
	b0 := new(big.Int).Set(b)

	// Reduce n into [0, b) first so negative values are handled the same
	// way as their canonical representatives.
	rn := Modulo(n, b)
	rb := new(big.Int).Set(b)
	if rn.Sign() == 0 {
		return nil, ErrNotInvertible
	}

	t1, t2 := big.NewInt(1), big.NewInt(0)
	s1, s2 := big.NewInt(0), big.NewInt(1)

	// Every two euclidean steps at least halve one of the remainders, so
	// the combined bit length bounds the number of steps. Hitting the cap
	// means the sequence is not converging on a unit gcd.
	maxSteps := 2*(rn.BitLen()+rb.BitLen()) + 4

	var t *big.Int
	for steps := 0; t == nil; steps++ {
		if steps > maxSteps {
			return nil, ErrNotInvertible
		}

		q := new(big.Int)
		if rn.Cmp(rb) < 0 {
			q.Div(rb, rn)
			rb = Modulo(rb, rn)
			s1.Sub(s1, new(big.Int).Mul(t1, q))
			s2.Sub(s2, new(big.Int).Mul(t2, q))
		} else {
			q.Div(rn, rb)
			rn = Modulo(rn, rb)
			t1.Sub(t1, new(big.Int).Mul(s1, q))
			t2.Sub(t2, new(big.Int).Mul(s2, q))
		}

		switch {
		case rb.Sign() == 0:
			t = t1
		case rn.Sign() == 0:
			t = s1
		}
	}

	t = Modulo(t, b0)

	// A zero remainder only pairs with a valid inverse when the operands
	// were coprime. Check the Bézout identity before trusting t.
	if Modulo(new(big.Int).Mul(n0, t), b0).Cmp(big.NewInt(1)) != 0 {
		return nil, ErrNotInvertible
	}

	return t, nil
}
