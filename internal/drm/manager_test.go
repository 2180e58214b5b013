// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courseguard/courseguard/internal/access"
	"github.com/courseguard/courseguard/internal/catalog"
	"github.com/courseguard/courseguard/internal/watermark"
)

// fakeClock lets tests move the wall clock without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()

	codec, err := NewURLCodec(testMasterKey(t))
	if err != nil {
		t.Fatalf("NewURLCodec: %v", err)
	}
	tokens, err := NewTokenIssuer(testTokenSecret)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	resolver := catalog.NewMemoryStorageResolver()
	resolver.Put("key-1", "https://cdn.example.com/videos/v-1/master.m3u8?sig=abc")

	m := NewManager(NewMemorySessionStore(), codec, tokens, resolver, time.Hour)
	clock := &fakeClock{now: time.Now()}
	m.now = clock.Now
	return m, clock
}

func grantedDecision() access.Decision {
	return access.Decision{
		HasAccess: true,
		Video: &catalog.Video{
			ID:         "v-1",
			CourseID:   "course-go",
			StorageKey: "key-1",
		},
	}
}

func TestCreateRequiresGrantingDecision(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name     string
		decision access.Decision
	}{
		{"denied decision", access.Decision{IsLocked: true, LockReason: access.LockReasonPurchaseRequired}},
		{"granted but no video", access.Decision{HasAccess: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(context.Background(), CreateRequest{UserID: "user-1", Decision: tt.decision})
			if !errors.Is(err, ErrAccessDenied) {
				t.Errorf("Create error = %v, want ErrAccessDenied", err)
			}
		})
	}
}

func TestCreateAndValidate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", ClientIP: "10.0.0.1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	if len(session.WatermarkPayload) != watermark.PayloadLength {
		t.Errorf("watermark payload length = %d, want %d", len(session.WatermarkPayload), watermark.PayloadLength)
	}
	if session.AccessToken == "" {
		t.Error("session must carry an access token")
	}
	if session.EncryptedURL == "" {
		t.Error("session must carry a sealed playback URL")
	}

	got, err := m.Validate(ctx, session.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.StateAt(time.Now()) != StateActive {
		t.Errorf("state = %v, want active", got.StateAt(time.Now()))
	}

	// The sealed URL opens back to the raw signed URL under this session.
	rawURL, err := m.DecryptURL(ctx, session.ID, session.EncryptedURL, "10.0.0.1")
	if err != nil {
		t.Fatalf("DecryptURL: %v", err)
	}
	if rawURL != "https://cdn.example.com/videos/v-1/master.m3u8?sig=abc" {
		t.Errorf("decrypted URL = %q", rawURL)
	}
}

func TestValidateNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Validate(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Validate error = %v, want ErrSessionNotFound", err)
	}
}

func TestValidateExpiresByWallClock(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// One minute before expiry the session is still good.
	clock.Advance(59 * time.Minute)
	if _, err := m.Validate(ctx, session.ID); err != nil {
		t.Fatalf("Validate at 59m: %v", err)
	}

	// One minute past expiry, without any sweeper having run, both
	// validation and decryption report expiry.
	clock.Advance(2 * time.Minute)
	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Validate at 61m error = %v, want ErrSessionExpired", err)
	}
	if _, err := m.DecryptURL(ctx, session.ID, session.EncryptedURL, ""); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("DecryptURL at 61m error = %v, want ErrSessionExpired", err)
	}

	// Expiry is absorbing: repeated checks never flip the session back.
	clock.Advance(time.Hour)
	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("re-validate error = %v, want ErrSessionExpired", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.Revoke(ctx, session.ID, "admin", "10.0.0.1"); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}
	if err := m.Revoke(ctx, session.ID, "admin", "10.0.0.1"); err != nil {
		t.Fatalf("second Revoke should be a no-op, got %v", err)
	}

	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("Validate after revoke error = %v, want ErrSessionRevoked", err)
	}
	if _, err := m.DecryptURL(ctx, session.ID, session.EncryptedURL, ""); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("DecryptURL after revoke error = %v, want ErrSessionRevoked", err)
	}
}

func TestRevokeExpiredSession(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if err := m.Revoke(ctx, session.ID, "admin", ""); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Revoke of expired session error = %v, want ErrSessionExpired", err)
	}
}

func TestRevokeNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Revoke(context.Background(), "missing", "admin", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Revoke error = %v, want ErrSessionNotFound", err)
	}
}

// touchGateStore parks Touch calls until released, exposing the window
// between a validation's state check and its last-seen write.
type touchGateStore struct {
	SessionStore
	entered chan struct{}
	release chan struct{}
}

func (s *touchGateStore) Touch(ctx context.Context, id string, seenAt time.Time) error {
	s.entered <- struct{}{}
	<-s.release
	return s.SessionStore.Touch(ctx, id, seenAt)
}

func TestValidateInFlightCannotUndoRevoke(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	gated := &touchGateStore{
		SessionStore: m.store,
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	m.store = gated

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.Validate(ctx, session.ID)
		done <- err
	}()

	// The in-flight validation has passed its state check and is parked
	// on the last-seen write when the revocation lands.
	<-gated.entered
	if err := m.Revoke(ctx, session.ID, "admin", ""); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	close(gated.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight Validate: %v", err)
	}

	// The revocation must hold regardless of the interleaving.
	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("Validate after Revoke error = %v, want ErrSessionRevoked", err)
	}
}

func TestRevocationSurvivesExpiry(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Revoke(ctx, session.ID, "admin", ""); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// Even after its natural lifetime passes, the stronger reason wins.
	clock.Advance(2 * time.Hour)
	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("Validate error = %v, want ErrSessionRevoked", err)
	}
}

func TestDecryptURLAcrossSessionsFails(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := m.Create(ctx, CreateRequest{UserID: "user-2", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	// A blob captured from one session is useless under another.
	if _, err := m.DecryptURL(ctx, second.ID, first.EncryptedURL, ""); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("cross-session DecryptURL error = %v, want ErrDecryptionFailed", err)
	}
}

func TestStats(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	revoked, err := m.Create(ctx, CreateRequest{UserID: "user-2", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Revoke(ctx, revoked.ID, "admin", ""); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	clock.Advance(30 * time.Minute)
	if _, err := m.Create(ctx, CreateRequest{UserID: "user-3", Decision: grantedDecision()}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Active != 2 || stats.Revoked != 1 || stats.Expired != 0 {
		t.Errorf("stats = %+v, want total 3, active 2, revoked 1", stats)
	}

	// First two sessions lapse; the later one is still inside its hour.
	clock.Advance(45 * time.Minute)
	stats, err = m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Active != 1 || stats.Expired != 1 || stats.Revoked != 1 {
		t.Errorf("stats after advance = %+v, want active 1, expired 1, revoked 1", stats)
	}
}

func TestCleanupExpiredRespectsRetention(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock.Advance(2 * time.Hour)

	// Inside the retention window the record stays so the player still
	// sees a precise expiry error.
	count, err := m.CleanupExpired(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if count != 0 {
		t.Errorf("cleanup removed %d sessions inside retention, want 0", count)
	}
	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Validate error = %v, want ErrSessionExpired", err)
	}

	// Past retention the record is gone for good.
	clock.Advance(24 * time.Hour)
	count, err = m.CleanupExpired(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if count != 1 {
		t.Errorf("cleanup removed %d sessions, want 1", count)
	}
	if _, err := m.Validate(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Validate after cleanup error = %v, want ErrSessionNotFound", err)
	}
}

func TestActiveSessions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, _ := m.Create(ctx, CreateRequest{UserID: "user-1", Decision: grantedDecision()})
	second, _ := m.Create(ctx, CreateRequest{UserID: "user-2", Decision: grantedDecision()})
	if err := m.Revoke(ctx, second.ID, "admin", ""); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	active, err := m.ActiveSessions(ctx)
	if err != nil {
		t.Fatalf("ActiveSessions: %v", err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Errorf("active sessions = %d, want just %s", len(active), first.ID[:8])
	}
}
