//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medtransit/internal/storage"
	pgstore "medtransit/internal/storage/postgres"
	"medtransit/pkg/platform/sentinel"
	"medtransit/pkg/testutil/containers"
)

type record struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *pgstore.Store[string, record]
	tx       *pgstore.Tx[string, record]
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = pgstore.New[string, record](s.postgres.DB, "records")
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
	s.tx = pgstore.NewTx(s.postgres.DB, s.store)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "records"))
}

func (s *PostgresStoreSuite) TestRoundTripAndOverwrite() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, "r-1", record{Name: "one"}))
	s.Require().NoError(s.store.Put(ctx, "r-1", record{Name: "two", Items: []string{"x"}}))

	got, err := s.store.Get(ctx, "r-1")
	s.Require().NoError(err)
	s.Equal(record{Name: "two", Items: []string{"x"}}, got)
}

func (s *PostgresStoreSuite) TestMissingKey() {
	_, err := s.store.Get(context.Background(), "missing")
	s.True(errors.Is(err, sentinel.ErrNotFound))

	exists, err := s.store.Exists(context.Background(), "missing")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestRollbackDiscardsWrites() {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.tx.RunInTx(ctx, "r-2", func(ctx context.Context, st storage.Store[string, record]) error {
		if err := st.Put(ctx, "r-2", record{Name: "discarded"}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	exists, err := s.store.Exists(ctx, "r-2")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestPanicReleasesLockAndDiscardsWrites() {
	ctx := context.Background()
	s.Panics(func() {
		_ = s.tx.RunInTx(ctx, "r-3", func(ctx context.Context, st storage.Store[string, record]) error {
			if err := st.Put(ctx, "r-3", record{Name: "half-written"}); err != nil {
				return err
			}
			panic("handler blew up")
		})
	})

	exists, err := s.store.Exists(ctx, "r-3")
	s.Require().NoError(err)
	s.False(exists)

	// The advisory lock on r-3 must be free again for the next writer.
	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = s.tx.RunInTx(lockCtx, "r-3", func(ctx context.Context, st storage.Store[string, record]) error {
		return st.Put(ctx, "r-3", record{Name: "after panic"})
	})
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, "r-3")
	s.Require().NoError(err)
	s.Equal("after panic", got.Name)
}

func (s *PostgresStoreSuite) TestAdvisoryLockCreatesOnce() {
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.tx.RunInTx(context.Background(), "shared", func(ctx context.Context, st storage.Store[string, record]) error {
				exists, err := st.Exists(ctx, "shared")
				if err != nil || exists {
					return err
				}
				created.Add(1)
				return st.Put(ctx, "shared", record{Name: "winner"})
			})
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
}
