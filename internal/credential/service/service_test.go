package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier,IssuerAuthorizer,Locker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/metrics"
	"trustscore/internal/credential/models"
	"trustscore/internal/credential/service/mocks"
	"trustscore/internal/credential/signature"
	"trustscore/internal/credential/store"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/audit"
	"trustscore/pkg/platform/audit/publisher"
	"trustscore/pkg/platform/audit/store/memory"
	"trustscore/pkg/requestcontext"
	pkgsync "trustscore/pkg/platform/sync"
	fixtures "trustscore/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	issuers    *mocks.MockIssuerAuthorizer
	store      *store.InMemoryStore
	auditStore *memory.InMemoryStore
	metrics    *metrics.Metrics
	signer     *signature.LocalSigner
	service    *Service
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.issuers = mocks.NewMockIssuerAuthorizer(s.ctrl)
	s.store = store.NewInMemory()
	s.auditStore = memory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.signer = fixtures.NewIssuer(s.T())
	s.service = New(s.store, signature.NewKeyResolver(16), s.issuers,
		WithAuditor(audit.NewLogger(nil, publisher.NewPublisher(s.auditStore))),
		WithMetrics(s.metrics),
	)
	s.ctx = requestcontext.WithTime(context.Background(), fixtures.FixedNow.Add(time.Hour))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) authorizeAll() {
	s.issuers.EXPECT().IsAuthorized(gomock.Any(), s.signer.DID(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *ServiceSuite) TestAccept() {
	s.Run("stores a verified credential with its signature", func() {
		s.authorizeAll()
		c, sig := fixtures.NewCredential(catalog.BankBalanceHigh).Signed(s.T(), s.signer)

		accepted, err := s.service.Accept(s.ctx, c, sig)
		s.Require().NoError(err)
		s.Equal(sig, accepted.Signature)

		stored, status, err := s.service.Status(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, status)
		s.True(c.SameAs(*stored))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialsTracked.WithLabelValues("BANK_BALANCE_HIGH")))
	})

	s.Run("tampered field fails signature check without touching the store", func() {
		c, sig := fixtures.NewCredential(catalog.BankBalanceLow).Signed(s.T(), s.signer)
		c.Type = catalog.BankBalanceHigh
		c.Weight = 150

		_, err := s.service.Accept(s.ctx, c, sig)
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidSignature)
		s.assertNotTracked(c.ID)
	})

	s.Run("malformed signature is an invalid signature", func() {
		c, _ := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)
		_, err := s.service.Accept(s.ctx, c, []byte("nope"))
		s.ErrorIs(err, models.ErrInvalidSignature)
	})

	s.Run("unknown type is an encoding error", func() {
		c, sig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)
		c.Type = "CREDIT_SCORE"
		_, err := s.service.Accept(s.ctx, c, sig)
		s.ErrorIs(err, models.ErrEncoding)
	})

	s.Run("weight must match catalog", func() {
		c, sig := fixtures.NewCredential(catalog.Employment).WithWeight(500).Signed(s.T(), s.signer)
		_, err := s.service.Accept(s.ctx, c, sig)
		s.ErrorIs(err, models.ErrEncoding)
	})

	s.Run("malformed subject is an encoding error", func() {
		c, sig := fixtures.NewCredential(catalog.Employment).ForSubject("alice").Signed(s.T(), s.signer)
		_, err := s.service.Accept(s.ctx, c, sig)
		s.ErrorIs(err, models.ErrEncoding)
	})
}

func (s *ServiceSuite) TestAcceptRejectsUnauthorizedIssuer() {
	c, sig := fixtures.NewCredential(catalog.CexHistory).Signed(s.T(), s.signer)
	s.issuers.EXPECT().IsAuthorized(gomock.Any(), s.signer.DID(), catalog.CexHistory).
		Return(dErrors.New(dErrors.CodeUnauthorizedIssuer, "issuer inactive"))

	_, err := s.service.Accept(s.ctx, c, sig)
	s.Require().Error(err)
	s.ErrorIs(err, models.ErrUnauthorizedIssuer)
	s.assertNotTracked(c.ID)

	events, _ := s.auditStore.ListAll(s.ctx)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventCredentialRejected), events[0].Action)
	s.Equal("unauthorized_issuer", events[0].Reason)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialsRejected.WithLabelValues("unauthorized_issuer")))
}

func (s *ServiceSuite) TestAcceptRegistryFailureIsInternal() {
	c, sig := fixtures.NewCredential(catalog.CexHistory).Signed(s.T(), s.signer)
	s.issuers.EXPECT().IsAuthorized(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err := s.service.Accept(s.ctx, c, sig)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestDuplicateIDRejected() {
	s.authorizeAll()
	c, sig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)

	_, err := s.service.Accept(s.ctx, c, sig)
	s.Require().NoError(err)
	_, err = s.service.Accept(s.ctx, c, sig)
	s.ErrorIs(err, models.ErrDuplicateID)

	creds, err := s.service.CredentialsFor(s.ctx, c.Subject)
	s.Require().NoError(err)
	s.Len(creds, 1)
}

func (s *ServiceSuite) TestConcurrentAcceptSameIDIsExactlyOnce() {
	s.authorizeAll()
	c, sig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)

	result := fixtures.RunConcurrent(20, func(int) error {
		_, err := s.service.Accept(s.ctx, c, sig)
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.Conflicts)
}

func (s *ServiceSuite) TestDistributedLockWrapsTrack() {
	s.authorizeAll()
	locker := mocks.NewMockLocker(s.ctrl)
	released := false
	svc := New(s.store, signature.NewKeyResolver(4), s.issuers, WithDistributedLock(locker, time.Second))
	c, sig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)

	locker.EXPECT().Acquire(gomock.Any(), "credential:"+c.ID.String(), time.Second).
		Return(func() { released = true }, nil)

	_, err := svc.Accept(s.ctx, c, sig)
	s.Require().NoError(err)
	s.True(released)
}

func (s *ServiceSuite) TestDistributedLockContention() {
	s.authorizeAll()
	locker := mocks.NewMockLocker(s.ctrl)
	svc := New(s.store, signature.NewKeyResolver(4), s.issuers, WithDistributedLock(locker, time.Second))
	c, sig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)

	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "lock held"))

	_, err := svc.Accept(s.ctx, c, sig)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.assertNotTracked(c.ID)
}

func (s *ServiceSuite) TestDistributedLockTakenOutsideShard() {
	s.authorizeAll()
	locker := mocks.NewMockLocker(s.ctrl)
	svc := New(s.store, signature.NewKeyResolver(4), s.issuers, WithDistributedLock(locker, time.Second))
	svc.locks = pkgsync.NewShardedMutexN(1)

	slow, slowSig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)
	fast, fastSig := fixtures.NewCredential(catalog.CexHistory).Signed(s.T(), s.signer)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	noop := func() {}
	locker.EXPECT().Acquire(gomock.Any(), "credential:"+slow.ID.String(), time.Second).
		DoAndReturn(func(context.Context, string, time.Duration) (func(), error) {
			close(entered)
			<-unblock
			return noop, nil
		})
	locker.EXPECT().Acquire(gomock.Any(), "credential:"+fast.ID.String(), time.Second).
		Return(noop, nil)

	slowDone := make(chan error, 1)
	go func() {
		_, err := svc.Accept(s.ctx, slow, slowSig)
		slowDone <- err
	}()
	<-entered

	// Every id shares the single shard; the fast id must not queue behind
	// the slow id's pending lock acquisition.
	_, err := svc.Accept(s.ctx, fast, fastSig)
	s.Require().NoError(err)

	close(unblock)
	s.Require().NoError(<-slowDone)
}

func (s *ServiceSuite) TestRevoke() {
	s.authorizeAll()
	c, sig := fixtures.NewCredential(catalog.Employment).Signed(s.T(), s.signer)
	_, err := s.service.Accept(s.ctx, c, sig)
	s.Require().NoError(err)

	s.Run("first revocation succeeds", func() {
		revoked, err := s.service.Revoke(s.ctx, c.ID, "issuer reported fraud")
		s.Require().NoError(err)
		s.Require().NotNil(revoked.RevokedAt)
		s.Equal(fixtures.FixedNow.Add(time.Hour), *revoked.RevokedAt)
	})

	s.Run("second revocation fails and keeps revokedAt", func() {
		later := requestcontext.WithTime(s.ctx, fixtures.FixedNow.Add(48*time.Hour))
		_, err := s.service.Revoke(later, c.ID, "again")
		s.ErrorIs(err, models.ErrAlreadyRevoked)

		stored, status, err := s.service.Status(later, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, status)
		s.Equal(fixtures.FixedNow.Add(time.Hour), *stored.RevokedAt)
		s.Equal("issuer reported fraud", stored.RevocationReason)
	})

	s.Run("revoked past expiry still reports revoked", func() {
		farFuture := requestcontext.WithTime(s.ctx, fixtures.FixedNow.AddDate(5, 0, 0))
		_, status, err := s.service.Status(farFuture, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, status)
	})

	s.Run("unknown id", func() {
		_, err := s.service.Revoke(s.ctx, domain.NewCredentialID(), "x")
		s.ErrorIs(err, models.ErrNotFound)
	})

	s.Run("reason bounds", func() {
		_, err := s.service.Revoke(s.ctx, c.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestStatsFollowRequestTime() {
	s.authorizeAll()
	bank, bankSig := fixtures.NewCredential(catalog.BankBalanceLow).Signed(s.T(), s.signer)
	job, jobSig := fixtures.NewCredential(catalog.Employment).ForSubject(fixtures.TestSubjects.Bob).Signed(s.T(), s.signer)
	_, err := s.service.Accept(s.ctx, bank, bankSig)
	s.Require().NoError(err)
	_, err = s.service.Accept(s.ctx, job, jobSig)
	s.Require().NoError(err)

	stats, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Stats{Total: 2, Active: 2, DistinctSubjects: 2}, stats)

	// 91 days later the bank balance credential has lapsed.
	later := requestcontext.WithTime(s.ctx, fixtures.FixedNow.AddDate(0, 0, 91))
	stats, err = s.service.Stats(later)
	s.Require().NoError(err)
	s.Equal(models.Stats{Total: 2, Active: 1, Expired: 1, DistinctSubjects: 2}, stats)
}

func (s *ServiceSuite) assertNotTracked(id domain.CredentialID) {
	_, _, err := s.service.Status(s.ctx, id)
	s.ErrorIs(err, models.ErrNotFound)
}
