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
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/eventstore/internal/storetest"
	"github.com/sequentio/sequent/eventstore/sqlstore"
	. "github.com/sequentio/sequent/eventstore/sqlstore/sqlite"
	"github.com/sequentio/sequent/fixtures"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

var _ = Describe("type Driver", func() {
	var (
		database *sqltest.Database
		db       *sql.DB
	)

	storetest.Declare(
		func(ctx context.Context, in storetest.In) storetest.Out {
			var err error
			database, err = sqltest.NewDatabase(ctx, sqltest.SQLite3Driver, sqltest.SQLite)
			Expect(err).ShouldNot(HaveOccurred())

			db, err = database.Open()
			Expect(err).ShouldNot(HaveOccurred())

			// SQLite allows only a single writer. Funnel the suite through one
			// connection so that concurrent appends queue rather than failing
			// with SQLITE_BUSY.
			db.SetMaxOpenConns(1)

			err = Driver.CreateSchema(ctx, db)
			Expect(err).ShouldNot(HaveOccurred())

			return storetest.Out{
				Store: &sqlstore.Store{
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

// staleReadDriver makes the in-transaction version check read the stream
// sequence that was current before a competing append committed, forcing the
// insert to collide on the storage-level uniqueness constraint. Reads outside
// a transaction see the real sequence.
type staleReadDriver struct {
	sqlstore.Driver
}

func (d staleReadDriver) SelectCurrentSequence(
	ctx context.Context,
	db sqlx.DB,
	tenantID, aggregateID string,
) (uint64, error) {
	if _, ok := db.(*sql.Tx); ok {
		return 0, nil
	}

	return d.Driver.SelectCurrentSequence(ctx, db, tenantID, aggregateID)
}

var _ = Describe("type Store", func() {
	var (
		ctx      context.Context
		cancel   func()
		database *sqltest.Database
		db       *sql.DB
		store    *sqlstore.Store
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)

		var err error
		database, err = sqltest.NewDatabase(ctx, sqltest.SQLite3Driver, sqltest.SQLite)
		Expect(err).ShouldNot(HaveOccurred())

		db, err = database.Open()
		Expect(err).ShouldNot(HaveOccurred())

		err = Driver.CreateSchema(ctx, db)
		Expect(err).ShouldNot(HaveOccurred())

		store = &sqlstore.Store{
			DB:     db,
			Driver: Driver,
		}
	})

	AfterEach(func() {
		err := Driver.DropSchema(ctx, db)
		Expect(err).ShouldNot(HaveOccurred())

		err = database.Close()
		Expect(err).ShouldNot(HaveOccurred())

		cancel()
	})

	Describe("func AppendEvents()", func() {
		It("reports the fresh version when the race is lost after the version check", func() {
			_, err := store.AppendEvents(
				ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{
					fixtures.NewEnvelope("<event-0>", fixtures.AccountOpened{AccountID: "<account>"}),
				},
			)
			Expect(err).ShouldNot(HaveOccurred())

			// A writer that read the stream before the append above committed
			// passes the version check but collides on insert.
			racer := &sqlstore.Store{
				DB:     db,
				Driver: staleReadDriver{Driver},
			}

			_, err = racer.AppendEvents(
				ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{
					fixtures.NewEnvelope("<event-1>", fixtures.FundsDeposited{AccountID: "<account>", Amount: 100}),
				},
			)

			var conflict eventstore.ConflictError
			Expect(err).To(BeAssignableToTypeOf(conflict))

			conflict = err.(eventstore.ConflictError)
			Expect(conflict.Expected).To(Equal(eventstore.Version(eventstore.NoStream{})))
			Expect(conflict.Actual).To(Equal(eventstore.Version(eventstore.Exact(0))))

			max, err := store.MaxGlobalSequence(ctx, fixtures.DefaultTenantID)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(max).To(BeEquivalentTo(1))
		})
	})
})
