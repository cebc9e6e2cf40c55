package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a non fractional coin quantity. In JSON it is accepted both as a number and as a
// decimal string, since wallets send amounts as strings to stay clear of float precision.
type Amount int64

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(a), 10)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("invalid amount %s: %w", data, err)
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("amount %q must be a whole number of coins", text)
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return fmt.Errorf("amount %q overflows int64", text)
	}
	*a = Amount(bi.Int64())
	return nil
}
