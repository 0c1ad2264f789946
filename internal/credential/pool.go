package credential

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoCredentials means no source produced a usable credential.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrSingleCredential means a rotation was requested with nothing to rotate to.
	ErrSingleCredential = errors.New("no backup credential available")
)

// Credential is one provider API key.
type Credential struct {
	Index  int
	Name   string
	Source string
	Token  string
}

// Masked returns the token with all but its edges hidden.
func (c Credential) Masked() string {
	return MaskToken(c.Token)
}

func (c Credential) String() string {
	return fmt.Sprintf("#%d %s (%s)", c.Index+1, c.Name, c.Masked())
}

// MaskToken keeps the first and last four characters of long tokens.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// Pool is the immutable, ordered set of credentials.
type Pool struct {
	creds []Credential
}

// NewPool indexes creds in order. Duplicate tokens are kept but logged.
func NewPool(creds []Credential) (*Pool, error) {
	if len(creds) == 0 {
		return nil, ErrNoCredentials
	}
	out := make([]Credential, 0, len(creds))
	seen := make(map[string]string, len(creds))
	for _, c := range creds {
		if c.Token == "" {
			continue
		}
		if prev, dup := seen[c.Token]; dup {
			log.Warnf("credential %s duplicates %s", c.Name, prev)
		}
		seen[c.Token] = c.Name
		c.Index = len(out)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoCredentials
	}
	return &Pool{creds: out}, nil
}

// Load concatenates the credentials of every source in order.
func Load(ctx context.Context, sources ...Source) (*Pool, error) {
	var all []Credential
	for _, src := range sources {
		if src == nil {
			continue
		}
		creds, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("credential source %s: %w", src.Name(), err)
		}
		all = append(all, creds...)
	}
	pool, err := NewPool(all)
	if err != nil {
		return nil, err
	}
	log.Infof("Total API keys loaded: %d", pool.Len())
	return pool, nil
}

func (p *Pool) Len() int { return len(p.creds) }

// At returns the credential at i; i must be in range.
func (p *Pool) At(i int) Credential { return p.creds[i] }

// All returns a copy of the credentials in rotation order.
func (p *Pool) All() []Credential {
	out := make([]Credential, len(p.creds))
	copy(out, p.creds)
	return out
}
