package download

import (
	"bytes"
	"os"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/models"
)

// Environment is the outcome of ValidateEnvironment.
type Environment struct {
	Supported bool                     `json:"supported"`
	Checks    common.EnvironmentChecks `json:"checks"`
	Warnings  []common.Warning         `json:"warnings"`
}

// ValidateEnvironment probes everything a save depends on: the handle
// registry, the output directory being writable, and the directory not
// being writable by everyone.
func (s *Service) ValidateEnvironment() Environment {
	checks := common.EnvironmentChecks{
		BlobSupport:         s.handles != nil,
		HandleSupport:       s.probeHandles(),
		LinkDownloadSupport: s.probeWritable(),
		SecureContext:       s.probePrivate(),
	}

	return Environment{
		Supported: checks.All(),
		Checks:    checks,
		Warnings:  common.CreateWarnings(checks),
	}
}

func (s *Service) probeHandles() bool {
	if s.handles == nil {
		return false
	}
	payload := []byte("probe")
	h := s.handles.Create(models.NewBlob(payload, "text/plain"))
	b, ok := s.handles.Resolve(h)
	revoked := s.handles.Revoke(h)
	return ok && revoked && bytes.Equal(b.Bytes(), payload)
}

func (s *Service) probeWritable() bool {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false
	}
	f, err := os.CreateTemp(s.dir, ".avifconv-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	return os.Remove(name) == nil
}

func (s *Service) probePrivate() bool {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return false
	}
	return fi.IsDir() && fi.Mode().Perm()&0o002 == 0
}
