package sync

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint identifies rcfile content for sync purposes.
// Two rcfiles with the same Fingerprint are considered identical.
type Fingerprint [md5.Size]byte

// NewFingerprint hashes content after stripping leading and trailing whitespace.
// The web editors on the remote sites add a newline when an rcfile is saved
// through them, so that difference must not count as a change.
func NewFingerprint(content []byte) Fingerprint {
	return Fingerprint(md5.Sum(Normalize(content)))
}

// EmptyFingerprint is the Fingerprint used when a site has no rcfile yet.
func EmptyFingerprint() Fingerprint {
	return NewFingerprint(nil)
}

// asciiSpace is the set of bytes Normalize strips.
const asciiSpace = " \t\n\v\f\r"

// Normalize returns content without leading and trailing ASCII whitespace.
// The returned slice shares memory with content.
func Normalize(content []byte) []byte {
	return bytes.Trim(content, asciiSpace)
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}
