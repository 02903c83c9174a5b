package boltledger_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	"github.com/sequentio/sequent/internal/testing/boltdbtest"
	"github.com/sequentio/sequent/ledger/internal/ledgertest"
	. "github.com/sequentio/sequent/ledger/boltledger"
	"go.etcd.io/bbolt"
)

var _ = Describe("type Ledger", func() {
	var (
		db    *bbolt.DB
		close func()
	)

	ledgertest.Declare(
		func(ctx context.Context, in ledgertest.In) ledgertest.Out {
			db, close = boltdbtest.Open()

			return ledgertest.Out{
				Ledger: &Ledger{
					DB: db,
				},
			}
		},
		func() {
			close()
		},
	)
})
