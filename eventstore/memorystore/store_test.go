package memorystore_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	"github.com/sequentio/sequent/eventstore/internal/storetest"
	. "github.com/sequentio/sequent/eventstore/memorystore"
)

var _ = Describe("type Store", func() {
	var store *Store

	storetest.Declare(
		func(ctx context.Context, in storetest.In) storetest.Out {
			store = &Store{}

			return storetest.Out{
				Store: store,
			}
		},
		func() {
			store.Close()
		},
	)
})
