package credential

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// FileSource reads one key per line; blank lines and # comments are skipped.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) ([]Credential, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open keys file: %w", err)
	}
	defer f.Close()

	var creds []Credential
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok := strings.TrimSpace(sc.Text())
		if tok == "" || strings.HasPrefix(tok, "#") {
			continue
		}
		creds = append(creds, Credential{
			Name:   fmt.Sprintf("%s:%d", s.Path, line),
			Source: s.Name(),
			Token:  tok,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}
	return creds, nil
}
