package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	"trustscore/internal/issuance/models"
	"trustscore/pkg/testutil"
)

// StoreSuite runs the same contract against every pending store.
type StoreSuite struct {
	suite.Suite
	newStore func() Store
	advance  func(time.Duration)
	store    Store
}

func TestInMemoryStoreSuite(t *testing.T) {
	now := testutil.FixedNow
	suite.Run(t, &StoreSuite{
		newStore: func() Store {
			return NewInMemoryWithClock(func() time.Time { return now })
		},
		advance: func(d time.Duration) { now = now.Add(d) },
	})
}

func TestRedisStoreSuite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &StoreSuite{
		newStore: func() Store {
			mr.FlushAll()
			return NewRedis(client)
		},
		advance: mr.FastForward,
	})
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore()
}

func (s *StoreSuite) draft() *models.Draft {
	c := testutil.NewCredential(catalog.CexHistory).Build()
	payload, digest, err := codec.New(catalog.Default()).Digest(c.Fields())
	s.Require().NoError(err)
	return &models.Draft{
		Credential:   c,
		Payload:      payload,
		Digest:       digest,
		RequestedAt:  testutil.FixedNow,
		PendingUntil: testutil.FixedNow.Add(15 * time.Minute),
	}
}

func (s *StoreSuite) TestSaveFindDelete() {
	ctx := context.Background()
	d := s.draft()

	s.Require().NoError(s.store.Save(ctx, d, 15*time.Minute))
	got, err := s.store.Find(ctx, d.ID())
	s.Require().NoError(err)
	s.True(d.Credential.SameAs(*got.Credential))
	s.Equal(d.Payload, got.Payload)
	s.Equal(d.Digest, got.Digest)
	s.True(d.PendingUntil.Equal(got.PendingUntil))

	s.Require().NoError(s.store.Delete(ctx, d.ID()))
	_, err = s.store.Find(ctx, d.ID())
	s.ErrorIs(err, ErrNotFound)
	s.NoError(s.store.Delete(ctx, d.ID()))
}

func (s *StoreSuite) TestSaveRejectsLiveDuplicate() {
	ctx := context.Background()
	d := s.draft()
	s.Require().NoError(s.store.Save(ctx, d, time.Minute))
	s.ErrorIs(s.store.Save(ctx, d, time.Minute), ErrConflict)
}

func (s *StoreSuite) TestDraftEvictedAfterTTL() {
	ctx := context.Background()
	d := s.draft()
	s.Require().NoError(s.store.Save(ctx, d, time.Minute))

	s.advance(59 * time.Second)
	_, err := s.store.Find(ctx, d.ID())
	s.NoError(err)

	s.advance(time.Second)
	_, err = s.store.Find(ctx, d.ID())
	s.ErrorIs(err, ErrNotFound)

	s.NoError(s.store.Save(ctx, d, time.Minute), "id is free again after eviction")
}

func TestInMemoryDeleteExpired(t *testing.T) {
	now := testutil.FixedNow
	st := NewInMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c := testutil.NewCredential(catalog.Employment).Build()
		ttl := time.Minute
		if i == 0 {
			ttl = time.Hour
		}
		if err := st.Save(ctx, &models.Draft{Credential: c}, ttl); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	now = now.Add(2 * time.Minute)
	removed, err := st.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 2 || st.Len() != 1 {
		t.Fatalf("removed=%d remaining=%d, want 2 and 1", removed, st.Len())
	}
}
