package credential

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

var (
	ErrInvalidFormat     = errors.New("passcode must be 4-8 digits")
	ErrDuplicate         = errors.New("passcode already in use for this unit")
	ErrExhausted         = errors.New("passcode expired or usage limit reached")
	ErrExpiryBeforeBasis = errors.New("expiration must be after the expected time")
	ErrCodeSpace         = errors.New("could not generate a unique passcode")
)

var codePattern = regexp.MustCompile(`^\d{4,8}$`)

// PolicyKind selects between single-use and multi-use passcodes.
type PolicyKind int

const (
	SingleUse PolicyKind = iota
	MultiUse
)

// UsagePolicy describes how many times a passcode may be consumed.
// Limit applies to MultiUse only; 0 means unbounded.
type UsagePolicy struct {
	Kind  PolicyKind
	Limit int
}

// Credential is a short numeric secret bound to one entry.  It is a value:
// Consume returns an updated copy and the caller persists it.  Credentials
// are never deleted, only superseded or left to expire.
type Credential struct {
	Code         string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Policy       UsagePolicy
	UsesConsumed int
}

// ValidAt reports whether the credential can still open a door at the given
// instant: not yet expired, and with at least one use remaining under its
// policy.
func (c Credential) ValidAt(now time.Time) bool {
	if !now.Before(c.ExpiresAt) {
		return false
	}
	switch c.Policy.Kind {
	case SingleUse:
		return c.UsesConsumed == 0
	case MultiUse:
		if c.Policy.Limit > 0 {
			return c.UsesConsumed < c.Policy.Limit
		}
		return true
	}
	return false
}

// ExpiryMode selects how ExpiresAt is derived from the expected time.
type ExpiryMode int

const (
	// ExpiryDefault expires the passcode 24h after the basis instant.
	ExpiryDefault ExpiryMode = iota
	// ExpiryRelative expires Days+Hours after the basis instant.
	ExpiryRelative
	// ExpiryAbsolute expires at an explicitly supplied instant.
	ExpiryAbsolute
)

// Expiry is the tagged expiration choice supplied by the caller.  Days and
// Hours apply to ExpiryRelative; At applies to ExpiryAbsolute.
type Expiry struct {
	Mode  ExpiryMode
	Days  int
	Hours int
	At    time.Time
}

// expiresAt resolves the expiry against the basis instant.  A relative
// expiry of zero days and zero hours, and an absolute expiry with a zero
// instant, both fall back to basis+24h.  An absolute instant at or before
// the basis is rejected rather than producing a negative-duration passcode.
func (e Expiry) expiresAt(basis time.Time) (time.Time, error) {
	switch e.Mode {
	case ExpiryRelative:
		if e.Days < 0 || e.Hours < 0 {
			return time.Time{}, ErrExpiryBeforeBasis
		}
		if e.Days == 0 && e.Hours == 0 {
			return basis.Add(24 * time.Hour), nil
		}
		return basis.AddDate(0, 0, e.Days).Add(time.Duration(e.Hours) * time.Hour), nil
	case ExpiryAbsolute:
		if e.At.IsZero() {
			return basis.Add(24 * time.Hour), nil
		}
		if !e.At.After(basis) {
			return time.Time{}, ErrExpiryBeforeBasis
		}
		return e.At, nil
	default:
		return basis.Add(24 * time.Hour), nil
	}
}

// GenerateParams carries everything Generate needs.  ActiveCodes is the set
// of codes currently valid within the owning unit; the caller (persistence
// layer) owns that set and any locking around it.
type GenerateParams struct {
	Length      int // digits; defaults to 6, clamped to [4,8]
	Policy      UsagePolicy
	Basis       time.Time // expected-arrival anchor for expiration
	Expiry      Expiry
	ActiveCodes []string
	Now         time.Time // issuance instant; zero means time.Now
}

const maxGenerateAttempts = 32

// Generate mints a fresh credential: a random digit code unique among the
// unit's active codes, with an expiration derived from the basis instant.
func Generate(p GenerateParams) (Credential, error) {
	length := p.Length
	if length == 0 {
		length = 6
	}
	if length < 4 || length > 8 {
		return Credential{}, fmt.Errorf("%w: length %d", ErrInvalidFormat, length)
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	basis := p.Basis
	if basis.IsZero() {
		basis = now
	}

	expiresAt, err := p.Expiry.expiresAt(basis)
	if err != nil {
		return Credential{}, err
	}

	active := make(map[string]struct{}, len(p.ActiveCodes))
	for _, c := range p.ActiveCodes {
		active[c] = struct{}{}
	}

	for range maxGenerateAttempts {
		code, err := randomDigits(length)
		if err != nil {
			return Credential{}, err
		}
		if _, taken := active[code]; taken {
			continue
		}
		return Credential{
			Code:      code,
			IssuedAt:  now,
			ExpiresAt: expiresAt,
			Policy:    p.Policy,
		}, nil
	}

	return Credential{}, ErrCodeSpace
}

// ValidateCustom checks a caller-supplied code: digits only, 4-8 long, and
// not colliding with any other active code in the same unit.
func ValidateCustom(code string, activeCodes []string) error {
	if !codePattern.MatchString(code) {
		return ErrInvalidFormat
	}
	for _, c := range activeCodes {
		if c == code {
			return ErrDuplicate
		}
	}
	return nil
}

// Consume records one successful use.  It fails with ErrExhausted if the
// credential is no longer valid at the given instant; otherwise it returns
// a copy with UsesConsumed incremented.  Reaching the limit on this call is
// not an error — exhaustion is discovered on the next attempt.
func Consume(c Credential, now time.Time) (Credential, error) {
	if !c.ValidAt(now) {
		return c, ErrExhausted
	}
	c.UsesConsumed++
	return c, nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(10)
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("draw digit: %w", err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
