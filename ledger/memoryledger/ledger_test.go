package memoryledger_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	"github.com/sequentio/sequent/ledger/internal/ledgertest"
	. "github.com/sequentio/sequent/ledger/memoryledger"
)

var _ = Describe("type Ledger", func() {
	ledgertest.Declare(
		func(ctx context.Context, in ledgertest.In) ledgertest.Out {
			return ledgertest.Out{
				Ledger: &Ledger{},
			}
		},
		nil,
	)
})
