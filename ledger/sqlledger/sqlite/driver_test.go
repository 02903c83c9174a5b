//go:build cgo
// +build cgo

package sqlite_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/dogmatiq/sqltest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sequentio/sequent/ledger/internal/ledgertest"
	"github.com/sequentio/sequent/ledger/sqlledger"
	. "github.com/sequentio/sequent/ledger/sqlledger/sqlite"
)

var _ = Describe("type Driver", func() {
	var (
		database *sqltest.Database
		db       *sql.DB
	)

	ledgertest.Declare(
		func(ctx context.Context, in ledgertest.In) ledgertest.Out {
			var err error
			database, err = sqltest.NewDatabase(ctx, sqltest.SQLite3Driver, sqltest.SQLite)
			Expect(err).ShouldNot(HaveOccurred())

			db, err = database.Open()
			Expect(err).ShouldNot(HaveOccurred())

			err = Driver.CreateSchema(ctx, db)
			Expect(err).ShouldNot(HaveOccurred())

			return ledgertest.Out{
				Ledger: &sqlledger.Ledger{
					DB:     db,
					Driver: Driver,
				},
			}
		},
		func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			err := Driver.DropSchema(ctx, db)
			Expect(err).ShouldNot(HaveOccurred())

			err = database.Close()
			Expect(err).ShouldNot(HaveOccurred())
		},
	)
})
