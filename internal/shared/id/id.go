// Package id generates sortable, prefixed identifiers for relay records.
package id

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// UserID identifies an account.
type UserID string

func (u UserID) String() string { return string(u) }

// UserPrefix marks account ids in logs and API payloads.
const UserPrefix = "usr"

var ErrMalformed = errors.New("malformed id")

// Generator produces ULIDs that sort by creation time. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader, time.Now)
}

// NewGeneratorWithEntropy uses the given entropy and clock. Ids created in the
// same millisecond increase monotonically.
func NewGeneratorWithEntropy(entropy io.Reader, now func() time.Time) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0), now: now}
}

// Generate returns a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// WithPrefix returns "<prefix>_<ulid>".
func (g *Generator) WithPrefix(prefix string) string {
	return prefix + "_" + g.Generate().String()
}

// NewUserID returns a fresh account id.
func (g *Generator) NewUserID() UserID {
	return UserID(g.WithPrefix(UserPrefix))
}

// Split separates a prefixed id into its prefix and ULID.
func Split(s string) (string, ulid.ULID, error) {
	prefix, raw, ok := strings.Cut(s, "_")
	if !ok || prefix == "" {
		return "", ulid.ULID{}, ErrMalformed
	}
	u, err := ulid.ParseStrict(raw)
	if err != nil {
		return "", ulid.ULID{}, ErrMalformed
	}
	return prefix, u, nil
}

// CreatedAt returns the time encoded in a prefixed id.
func CreatedAt(s string) (time.Time, error) {
	_, u, err := Split(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
