package groq

import (
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// stage writes data to a temporary file on fs. The returned release func
// removes it and must be called on every path.
func stage(fs afero.Fs, filename string, data []byte) (string, func(), error) {
	f, err := afero.TempFile(fs, "", "classecho-*"+stagingExt(filename))
	if err != nil {
		return "", func() {}, fmt.Errorf("create staging file: %w", err)
	}
	name := f.Name()
	release := func() {
		if err := fs.Remove(name); err != nil {
			log.WithError(err).WithField("file", name).Warn("failed to remove staged audio")
		}
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		release()
		return "", func() {}, fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		release()
		return "", func() {}, fmt.Errorf("close staging file: %w", err)
	}
	return name, release, nil
}

// stagingExt keeps the upload's extension so the provider can infer the
// container; .oga is sent as .ogg.
func stagingExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case "":
		return ".wav"
	case ".oga":
		return ".ogg"
	}
	return ext
}
