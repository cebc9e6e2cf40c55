package types

import (
	"fmt"
	"strings"
)

// SignType tags a SignPayload. The numeric values are fixed by protocol.
type SignType int

const (
	SignTypeAuth          SignType = 0
	SignTypeMatcherOrders SignType = 1
	SignTypeIssue         SignType = 3
	SignTypeTransfer      SignType = 4
	SignTypeReissue       SignType = 5
	SignTypeBurn          SignType = 6
	SignTypeLease         SignType = 8
	SignTypeCancelLeasing SignType = 9
	SignTypeCreateAlias   SignType = 10
	SignTypeMassTransfer  SignType = 11
)

var signTypeNames = map[SignType]string{
	SignTypeAuth:          "AUTH",
	SignTypeMatcherOrders: "MATCHER_ORDERS",
	SignTypeIssue:         "ISSUE",
	SignTypeTransfer:      "TRANSFER",
	SignTypeReissue:       "REISSUE",
	SignTypeBurn:          "BURN",
	SignTypeLease:         "LEASE",
	SignTypeCancelLeasing: "CANCEL_LEASING",
	SignTypeCreateAlias:   "CREATE_ALIAS",
	SignTypeMassTransfer:  "MASS_TRANSFER",
}

// AllSignTypes returns the closed set of sign types in ascending order.
func AllSignTypes() []SignType {
	return []SignType{
		SignTypeAuth,
		SignTypeMatcherOrders,
		SignTypeIssue,
		SignTypeTransfer,
		SignTypeReissue,
		SignTypeBurn,
		SignTypeLease,
		SignTypeCancelLeasing,
		SignTypeCreateAlias,
		SignTypeMassTransfer,
	}
}

func (st SignType) IsValid() bool {
	_, ok := signTypeNames[st]
	return ok
}

func (st SignType) String() string {
	if name, ok := signTypeNames[st]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(st))
}

// ParseSignType accepts either the tag name (case-insensitive) or its protocol number.
func ParseSignType(s string) (SignType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for st, name := range signTypeNames {
		if name == upper || fmt.Sprintf("%d", int(st)) == upper {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedPayloadTag, s)
}
