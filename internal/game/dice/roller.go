package dice

import "go.uber.org/zap"

// Roller is the engine's random number service. Every draw is logged at
// Debug so a fight can be reconstructed from the logs.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller over src.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll parses and evaluates expr.
func (r *Roller) Roll(expr string) (Result, error) {
	e, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}
	res := e.Roll(r.src)
	r.logger.Debug("dice roll",
		zap.String("expr", res.Expr),
		zap.Ints("kept", res.Kept),
		zap.Int("total", res.Total()),
	)
	return res, nil
}

// Percent reports whether a d100 lands at or under chance.
//
// Postcondition: chance <= 0 is always false and chance >= 100 always true,
// neither consuming a draw.
func (r *Roller) Percent(chance int) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	roll := r.src.Intn(100) + 1
	r.logger.Debug("percent roll", zap.Int("chance", chance), zap.Int("roll", roll))
	return roll <= chance
}

// Between returns a uniform value in [lo, hi]; swapped bounds are reordered.
func (r *Roller) Between(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo == hi {
		return lo
	}
	v := lo + r.src.Intn(hi-lo+1)
	r.logger.Debug("range roll", zap.Int("min", lo), zap.Int("max", hi), zap.Int("result", v))
	return v
}

// Intn passes straight through to the source.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}
