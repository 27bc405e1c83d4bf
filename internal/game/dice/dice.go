// Package dice supplies the randomness behind combat: percent checks,
// uniform damage ranges, and the dice expressions Lua procs may roll.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Source yields uniform integers. Implementations must be safe for
// concurrent use.
type Source interface {
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

// Intn panics when n <= 0 or the system random reader fails.
func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("dice: Intn(%d)", n))
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: reading crypto/rand: " + err.Error())
	}
	return int(v.Int64())
}

// Result is one evaluated expression.
//
// Invariant: Total() == sum(Kept) + Modifier.
type Result struct {
	Expr     string
	Kept     []int
	Modifier int
}

// Total returns the kept dice plus the modifier.
func (r Result) Total() int {
	t := r.Modifier
	for _, d := range r.Kept {
		t += d
	}
	return t
}

// String renders r as "2d6+3: 4 5 +3 = 12".
func (r Result) String() string {
	var b strings.Builder
	b.WriteString(r.Expr)
	b.WriteString(":")
	for _, d := range r.Kept {
		fmt.Fprintf(&b, " %d", d)
	}
	if r.Modifier != 0 {
		fmt.Fprintf(&b, " %+d", r.Modifier)
	}
	fmt.Fprintf(&b, " = %d", r.Total())
	return b.String()
}
