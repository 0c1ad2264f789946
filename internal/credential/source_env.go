package credential

import (
	"context"
	"os"
	"strconv"
	"strings"

	"classecho-go/internal/constants"
	log "github.com/sirupsen/logrus"
)

// LookupFunc resolves a configuration key, reporting whether it was present.
type LookupFunc func(key string) (string, bool)

// EnvSource loads PREFIX, PREFIX1, PREFIX2, ... from the environment.
// The numbered run stops at the first missing or blank suffix; the
// unnumbered base key is optional and does not affect the run.
type EnvSource struct {
	Prefix string
	Lookup LookupFunc
}

// NewEnvSource reads from the process environment.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{Prefix: prefix, Lookup: os.LookupEnv}
}

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Load(_ context.Context) ([]Credential, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	creds := make([]Credential, 0, 4)
	if tok, ok := lookupToken(lookup, s.Prefix); ok {
		creds = append(creds, Credential{Name: s.Prefix, Source: s.Name(), Token: tok})
		log.Debugf("loaded %s", s.Prefix)
	}

	for i := 1; i <= constants.MaxNumberedCredentials; i++ {
		key := s.Prefix + strconv.Itoa(i)
		tok, ok := lookupToken(lookup, key)
		if !ok {
			break
		}
		creds = append(creds, Credential{Name: key, Source: s.Name(), Token: tok})
		log.Debugf("loaded %s", key)
	}
	return creds, nil
}

func lookupToken(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
