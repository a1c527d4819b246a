package audit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustscore/pkg/domain"
	"trustscore/pkg/requestcontext"
)

// mockEmitter is a test double for the Emitter interface.
type mockEmitter struct {
	events    []Event
	shouldErr bool
}

func (m *mockEmitter) Emit(_ context.Context, event Event) error {
	if m.shouldErr {
		return errors.New("emit failed")
	}
	m.events = append(m.events, event)
	return nil
}

// LoggerSuite tests the audit Logger helper.
//
// The Logger has conditional enrichment (request_id and actor from context)
// and error handling paths that are unreachable via feature tests.
type LoggerSuite struct {
	suite.Suite
	emitter *mockEmitter
	logger  *Logger
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.emitter = &mockEmitter{}
	textLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s.logger = NewLogger(textLogger, s.emitter)
}

func (s *LoggerSuite) TestLogEnrichesWithRequestContext() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-12345")
	ctx = requestcontext.WithActor(ctx, requestcontext.ActorInfo{Role: requestcontext.RoleAdmin, Subject: "ops"})

	s.logger.Log(ctx, EventCredentialRevoked, "credential_id", "vc_1")

	s.Require().Len(s.emitter.events, 1)
	s.Equal("req-12345", s.emitter.events[0].RequestID)
	s.Equal("ops", s.emitter.events[0].Actor)
	s.Equal(CategoryCompliance, s.emitter.events[0].Category)
}

func (s *LoggerSuite) TestLogExtractsCredentialFields() {
	s.logger.Log(context.Background(), EventCredentialTracked,
		"credential_id", domain.CredentialID("vc_abc"),
		"subject", domain.SubjectID("did:web:alice"),
		"issuer", "did:key:z6Mk",
		"credential_type", "EMPLOYMENT",
		"reason", "ok",
		"ignored", 42,
	)

	s.Require().Len(s.emitter.events, 1)
	ev := s.emitter.events[0]
	s.Equal("credential_tracked", ev.Action)
	s.Equal("vc_abc", ev.CredentialID)
	s.Equal("did:web:alice", ev.Subject)
	s.Equal("did:key:z6Mk", ev.Issuer)
	s.Equal("EMPLOYMENT", ev.CredentialType)
	s.Equal("ok", ev.Reason)
}

func (s *LoggerSuite) TestEmitErrorDoesNotPanic() {
	s.emitter.shouldErr = true
	s.NotPanics(func() {
		s.logger.Log(context.Background(), EventCredentialRejected, "credential_id", "vc_1")
	})
	s.Empty(s.emitter.events)
}

func (s *LoggerSuite) TestNilLoggerAndEmitter() {
	var nilLogger *Logger
	s.NotPanics(func() {
		nilLogger.Log(context.Background(), EventCredentialTracked)
	})

	noEmitter := NewLogger(nil, nil)
	s.NotPanics(func() {
		noEmitter.Log(context.Background(), EventCredentialTracked, "credential_id", "vc_1")
	})
}
