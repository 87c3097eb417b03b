// Package verification checks the final framebuffer of a run against an
// expected digest.
package verification

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/retrogolib/log"
)

// ErrMismatch is returned when the framebuffer does not match.
var ErrMismatch = errors.New("framebuffer mismatch")

// maxLoggedMismatches limits the pixel mismatches that get logged.
const maxLoggedMismatches = 10

// Digest returns the hex encoded SHA-256 of the framebuffer bytes.
func Digest(fb machine.Framebuffer) string {
	sum := sha256.Sum256(fb.Bytes())
	return hex.EncodeToString(sum[:])
}

// VerifyFramebuffer compares the digest of the framebuffer with the expected
// hex digest. The comparison ignores case.
func VerifyFramebuffer(logger *log.Logger, fb machine.Framebuffer, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if len(expected) != 2*sha256.Size {
		return fmt.Errorf("invalid digest '%s': expected %d hex characters", expected, 2*sha256.Size)
	}
	if _, err := hex.DecodeString(expected); err != nil {
		return fmt.Errorf("invalid digest '%s': %w", expected, err)
	}

	got := Digest(fb)
	if got != expected {
		logger.Error("Framebuffer digest mismatch",
			log.String("expected", expected),
			log.String("got", got),
			log.Int("lit", fb.Lit()))
		return ErrMismatch
	}
	return nil
}

// CompareFramebuffers reports every pixel that differs between the two
// framebuffers, the first mismatches get logged.
func CompareFramebuffers(logger *log.Logger, expected, got machine.Framebuffer) error {
	var diffs int
	for y := range machine.ScreenHeight {
		for x := range machine.ScreenWidth {
			if expected.Pixel(x, y) == got.Pixel(x, y) {
				continue
			}

			diffs++
			if diffs <= maxLoggedMismatches {
				logger.Error("Pixel mismatch",
					log.Int("x", x),
					log.Int("y", y))
			}
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d pixels differ", ErrMismatch, diffs)
}
