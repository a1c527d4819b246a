// Package ledgersync applies credential events mirrored from the ledger.
//
// Delivery is at-least-once, so every event must be safe to apply twice: a
// replayed tracked event whose record is already stored, or a revocation of a
// credential already revoked, is acknowledged without effect. Events that can
// never apply (malformed, bad signature, unknown credential) are audited and
// acknowledged so that one poison message cannot stall its partition. Only
// infrastructure failures are returned, which makes the consumer retry.
package ledgersync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trustscore/contracts/ledger"
	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/models"
	"trustscore/internal/credential/signature"
	"trustscore/internal/platform/kafka/consumer"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/audit"
	"trustscore/pkg/requestcontext"
)

// CredentialService is the credential lifecycle the ledger mirrors into.
type CredentialService interface {
	Accept(ctx context.Context, c *models.Credential, sig []byte) (*models.Credential, error)
	Revoke(ctx context.Context, id domain.CredentialID, reason string) (*models.Credential, error)
	Status(ctx context.Context, id domain.CredentialID) (*models.Credential, models.Status, error)
}

type Option func(*Handler)

type Handler struct {
	credentials CredentialService
	auditor     *audit.Logger
	metrics     *Metrics
	logger      *slog.Logger
	clock       func() time.Time
}

func NewHandler(credentials CredentialService, opts ...Option) *Handler {
	h := &Handler{
		credentials: credentials,
		logger:      slog.Default(),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func WithAuditor(a *audit.Logger) Option {
	return func(h *Handler) { h.auditor = a }
}

func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithClock sets the time events are evaluated at.
func WithClock(clock func() time.Time) Option {
	return func(h *Handler) { h.clock = clock }
}

// skipError marks an event that can never be applied.
type skipError struct {
	reason string
	err    error
}

func (e *skipError) Error() string { return e.reason + ": " + e.err.Error() }
func (e *skipError) Unwrap() error { return e.err }

func skip(reason string, err error) error {
	return &skipError{reason: reason, err: err}
}

// Handle implements consumer.Handler.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	ctx = requestcontext.WithTime(ctx, h.clock())
	ctx = requestcontext.WithRequestID(ctx, fmt.Sprintf("ledger:%s:%d:%d", msg.Topic, msg.Partition, msg.Offset))

	var ev ledger.Event
	kind := "unknown"
	outcome, err := func() (string, error) {
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return "", skip("malformed_event", err)
		}
		kind = ev.Kind
		switch ev.Kind {
		case ledger.KindCredentialTracked:
			return h.applyTracked(ctx, ev.Tracked)
		case ledger.KindCredentialRevoked:
			return h.applyRevoked(ctx, ev.Revoked)
		default:
			kind = "unknown"
			return "", skip("unknown_kind", fmt.Errorf("unsupported event kind %q", ev.Kind))
		}
	}()

	var se *skipError
	switch {
	case err == nil:
		h.metrics.Observe(kind, outcome)
		return nil
	case errors.As(err, &se):
		h.metrics.Observe(kind, OutcomeSkipped)
		h.logger.WarnContext(ctx, "skipping ledger event",
			"reason", se.reason,
			"error", se.err,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		h.auditor.Log(ctx, audit.EventLedgerEventSkipped,
			"credential_id", eventCredentialID(&ev),
			"decision", "skipped",
			"reason", se.reason,
		)
		return nil
	default:
		h.metrics.Observe(kind, OutcomeRetry)
		return err
	}
}

func (h *Handler) applyTracked(ctx context.Context, rec *ledger.CredentialRecord) (string, error) {
	if rec == nil {
		return "", skip("malformed_event", fmt.Errorf("tracked event without record"))
	}
	c, err := toCredential(rec)
	if err != nil {
		return "", skip(string(dErrors.CodeEncoding), err)
	}
	sig := signature.Decode(rec.Signature)

	_, err = h.credentials.Accept(ctx, c, sig)
	switch dErrors.CodeOf(err) {
	case "":
		return OutcomeApplied, nil
	case dErrors.CodeDuplicateID:
		existing, _, statusErr := h.credentials.Status(ctx, c.ID)
		if statusErr != nil {
			return "", statusErr
		}
		if existing.SameAs(*c) {
			return OutcomeReplay, nil
		}
		return "", skip("conflicting_record", err)
	case dErrors.CodeEncoding, dErrors.CodeInvalidSignature, dErrors.CodeUnauthorizedIssuer:
		return "", skip(string(dErrors.CodeOf(err)), err)
	default:
		return "", err
	}
}

func (h *Handler) applyRevoked(ctx context.Context, rev *ledger.Revocation) (string, error) {
	if rev == nil {
		return "", skip("malformed_event", fmt.Errorf("revoked event without payload"))
	}
	id, err := domain.ParseCredentialID(rev.ID)
	if err != nil {
		return "", skip(string(dErrors.CodeEncoding), err)
	}

	_, err = h.credentials.Revoke(ctx, id, rev.Reason)
	switch dErrors.CodeOf(err) {
	case "":
		return OutcomeApplied, nil
	case dErrors.CodeAlreadyRevoked:
		return OutcomeReplay, nil
	case dErrors.CodeNotFound, dErrors.CodeValidation:
		return "", skip(string(dErrors.CodeOf(err)), err)
	default:
		return "", err
	}
}

func toCredential(rec *ledger.CredentialRecord) (*models.Credential, error) {
	id, err := domain.ParseCredentialID(rec.ID)
	if err != nil {
		return nil, err
	}
	issuer, err := domain.ParseIssuerID(rec.Issuer)
	if err != nil {
		return nil, err
	}
	subject, err := domain.ParseSubjectID(rec.Subject)
	if err != nil {
		return nil, err
	}
	if rec.IssuedAt < 0 || rec.ExpiresAt < 0 {
		return nil, dErrors.New(dErrors.CodeEncoding, "negative timestamp")
	}
	return models.NewCredential(id, catalog.Type(rec.Type), issuer, subject,
		time.Unix(rec.IssuedAt, 0), time.Unix(rec.ExpiresAt, 0), rec.Weight)
}

func eventCredentialID(ev *ledger.Event) string {
	switch {
	case ev.Tracked != nil:
		return ev.Tracked.ID
	case ev.Revoked != nil:
		return ev.Revoked.ID
	default:
		return ""
	}
}
