// Package fixtures contains test doubles and test data used throughout the
// test suites.
package fixtures

import (
	"reflect"

	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/marshalkit/codec"
	"github.com/dogmatiq/marshalkit/codec/json"
)

// AccountOpened is a test event indicating that an account has been opened.
type AccountOpened struct {
	AccountID string
	Owner     string
}

// FundsDeposited is a test event indicating that funds have been deposited
// into an account.
type FundsDeposited struct {
	AccountID string
	Amount    int64
}

// FundsWithdrawn is a test event indicating that funds have been withdrawn
// from an account.
type FundsWithdrawn struct {
	AccountID string
	Amount    int64
}

// Marshaler is a marshaler that supports the test event types.
var Marshaler marshalkit.Marshaler = newMarshaler()

func newMarshaler() marshalkit.Marshaler {
	m, err := codec.NewMarshaler(
		[]reflect.Type{
			reflect.TypeOf(AccountOpened{}),
			reflect.TypeOf(FundsDeposited{}),
			reflect.TypeOf(FundsWithdrawn{}),
		},
		[]codec.Codec{
			&json.Codec{},
		},
	)
	if err != nil {
		panic(err)
	}

	return m
}
