// Package qr models the points-award handshake: one user displays a QR code
// encoding their identity, the confirming party scans it and explicitly
// confirms before any points move.
package qr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hoffee-app/hoffee/app/loyalty"
)

// The QR payload is a deep link whose fragment routes to the confirmation
// view, parameterized by "id<numericUserId>".
const confirmRoute = "/#/confirm-scan/"

// BuildLink produces the deep link encoded into a user's QR code.
func BuildLink(origin string, userID int64) string {
	return fmt.Sprintf("%s%sid%d", strings.TrimRight(origin, "/"), confirmRoute, userID)
}

// ErrBadPayload is returned when a scanned payload carries no identity token.
var ErrBadPayload = errors.New("qr: payload carries no user identity")

// ParseTarget extracts the target user id from a scanned payload. Both the
// full deep link and a bare "id<number>" token are accepted.
func ParseTarget(payload string) (int64, error) {
	token := payload
	if i := strings.LastIndex(payload, "/"); i >= 0 {
		token = payload[i+1:]
	}

	rest, ok := strings.CutPrefix(token, "id")
	if !ok {
		return 0, ErrBadPayload
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadPayload
	}
	return id, nil
}

// State is the confirming party's position in the handshake.
type State int

const (
	Idle State = iota
	Confirming
	Settling
	Settled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Settling:
		return "settling"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Awarder credits points to the target identity. The store satisfies it for
// same-device self-scans; the backend client for awards to other users.
type Awarder interface {
	Award(ctx context.Context, target int64, amount int) error
}

var (
	// ErrSettled is returned for any transition out of the terminal state.
	ErrSettled = errors.New("qr: award already settled")
	// ErrNotConfirming is returned when Confirm runs without a prior Begin.
	ErrNotConfirming = errors.New("qr: confirm without pending scan")
)

// Handshake drives one award from scan to settlement. Settled is terminal;
// a failure can be retried with a fresh Begin.
type Handshake struct {
	mu      sync.Mutex
	state   State
	target  int64
	awarder Awarder
}

// New builds an idle handshake for the target user.
func New(target int64, awarder Awarder) *Handshake {
	return &Handshake{target: target, awarder: awarder}
}

// Target returns the user id the award is destined for.
func (h *Handshake) Target() int64 { return h.target }

// State returns the current handshake position.
func (h *Handshake) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Begin moves the handshake to Confirming after a scan. A failed attempt may
// begin again; a settled one may not.
func (h *Handshake) Begin() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case Idle, Failed:
		h.state = Confirming
		return nil
	case Settled:
		return ErrSettled
	default:
		return fmt.Errorf("qr: cannot begin from %s", h.state)
	}
}

// Confirm executes the award. No partial credit: a remote failure moves to
// Failed with nothing applied, and retrying is a fresh Begin plus Confirm.
func (h *Handshake) Confirm(ctx context.Context) error {
	h.mu.Lock()
	if h.state == Settled {
		h.mu.Unlock()
		return ErrSettled
	}
	if h.state != Confirming {
		h.mu.Unlock()
		return ErrNotConfirming
	}
	h.state = Settling
	h.mu.Unlock()

	err := h.awarder.Award(ctx, h.target, loyalty.QRAwardPoints)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.state = Failed
		return fmt.Errorf("qr: settle award: %w", err)
	}
	h.state = Settled
	return nil
}
