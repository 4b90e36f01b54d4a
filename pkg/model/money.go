package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Money is an exact amount with two fractional digits, held in cents.
type Money int64

var (
	hundred = big.NewInt(100)
	two     = big.NewInt(2)
)

func Cents(c int64) Money { return Money(c) }

// ParseMoney parses a decimal literal such as "100", "99.5" or "12.345",
// rounding half-up to whole cents.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return moneyFromRat(r)
}

func moneyFromRat(r *big.Rat) (Money, error) {
	num := new(big.Int).Mul(r.Num(), hundred)
	cents := divHalfUp(num, r.Denom())
	if !cents.IsInt64() {
		return 0, fmt.Errorf("amount out of range")
	}
	return Money(cents.Int64()), nil
}

// divHalfUp divides n by a positive d rounding halves away from zero.
func divHalfUp(n, d *big.Int) *big.Int {
	neg := n.Sign() < 0
	abs := new(big.Int).Abs(n)
	q := new(big.Int).Mul(abs, two)
	q.Add(q, d)
	q.Quo(q, new(big.Int).Mul(d, two))
	if neg {
		q.Neg(q)
	}
	return q
}

func (m Money) Cents() int64 { return int64(m) }

func (m Money) IsPositive() bool { return m > 0 }

func (m Money) Add(o Money) Money { return m + o }

func (m Money) Times(n int) Money { return m * Money(n) }

// DivideHalfUp divides by n and rounds the result half-up to cents.
func (m Money) DivideHalfUp(n int64) Money {
	if n <= 0 {
		panic("model: DivideHalfUp by non-positive divisor")
	}
	return Money(divHalfUp(big.NewInt(int64(m)), big.NewInt(n)).Int64())
}

func (m Money) String() string {
	sign := ""
	c := int64(m)
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. The literal is
// parsed exactly, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	literal := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &literal); err != nil {
			return err
		}
	}
	parsed, err := ParseMoney(literal)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
