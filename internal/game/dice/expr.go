package dice

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MaxDice bounds the dice count of one expression.
const MaxDice = 100

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:kh(\d+))?([+-]\d+)?$`)

// Expression is a parsed "NdS[khK][+M]" roll.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Keep     int // 0 keeps every die
	Modifier int
}

// Parse reads forms such as "d20", "2d6+3", "4d8-2" and "4d6kh3".
// Whitespace and case are ignored.
//
// Postcondition: on success 1 <= Count <= MaxDice, Sides >= 2 and
// 0 <= Keep < Count.
func Parse(s string) (Expression, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	m := exprPattern.FindStringSubmatch(norm)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", s)
	}
	e := Expression{Raw: norm, Count: 1}
	if m[1] != "" {
		e.Count, _ = strconv.Atoi(m[1])
	}
	e.Sides, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		e.Keep, _ = strconv.Atoi(m[3])
	}
	if m[4] != "" {
		e.Modifier, _ = strconv.Atoi(m[4])
	}
	switch {
	case e.Count < 1 || e.Count > MaxDice:
		return Expression{}, fmt.Errorf("dice: %q: count must be 1-%d", s, MaxDice)
	case e.Sides < 2:
		return Expression{}, fmt.Errorf("dice: %q: a die needs at least 2 sides", s)
	case m[3] != "" && (e.Keep < 1 || e.Keep >= e.Count):
		return Expression{}, fmt.Errorf("dice: %q: keep must be between 1 and %d", s, e.Count-1)
	}
	return e, nil
}

// Roll evaluates e against src.
//
// Postcondition: len(Kept) is Keep when set, otherwise Count; every kept
// die is in [1, Sides].
func (e Expression) Roll(src Source) Result {
	rolled := make([]int, e.Count)
	for i := range rolled {
		rolled[i] = src.Intn(e.Sides) + 1
	}
	if e.Keep > 0 {
		slices.Sort(rolled)
		slices.Reverse(rolled)
		rolled = rolled[:e.Keep]
	}
	return Result{Expr: e.Raw, Kept: rolled, Modifier: e.Modifier}
}
