package cpu

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Artifact is a locally supplied core netlist, pinned by its digest.
type Artifact struct {
	Path   string `toml:"path"`
	SHA256 string `toml:"sha256"`
}

// Verify checks that the artifact exists and matches its pinned digest.
func (a *Artifact) Verify() error {
	buf, err := os.ReadFile(a.Path)
	if err != nil {
		return fmt.Errorf("core artifact: %w", err)
	}
	sum := sha256.Sum256(buf)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, a.SHA256) {
		return fmt.Errorf("core artifact %s: sha256 mismatch, got %s, want %s", a.Path, got, a.SHA256)
	}
	return nil
}
