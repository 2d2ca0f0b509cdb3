package contract

import (
	"fmt"
	"math"
	"strconv"
)

// Cents is a euro amount in integer minor units. All policy arithmetic is
// integer arithmetic so that installment splits and discounts can never lose
// or invent currency.
type Cents int64

func FromEuros(v float64) Cents {
	return Cents(math.Round(v * 100))
}

func (c Cents) Euros() float64 {
	return float64(c) / 100
}

// String renders the amount as €x.yy.
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s€%d.%02d", sign, v/100, v%100)
}

// SplitEven divides the amount into n installments. The remainder from
// integer division is absorbed into the final installment, so
// per*(n-1)+last always equals c exactly.
func (c Cents) SplitEven(n int) (per, last Cents) {
	if n <= 0 {
		return 0, c
	}
	per = c / Cents(n)
	last = c - per*Cents(n-1)
	return per, last
}

// Percent returns p percent of the amount, rounded half-up to the cent.
func (c Cents) Percent(p int64) Cents {
	raw := int64(c) * p
	if raw >= 0 {
		return Cents((raw + 50) / 100)
	}
	return Cents((raw - 50) / 100)
}

// MarshalJSON emits the amount as fractional euros, the shape used by
// customers.json and transcript records.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(c.Euros(), 'f', 2, 64)), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	*c = FromEuros(v)
	return nil
}
