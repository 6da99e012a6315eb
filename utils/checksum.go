package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// ChecksumReader hashes everything read through it with SHA-256.
type ChecksumReader struct {
	reader io.Reader
	hash   hash.Hash
	n      int64
}

func NewChecksumReader(r io.Reader) *ChecksumReader {
	h := sha256.New()
	return &ChecksumReader{reader: io.TeeReader(r, h), hash: h}
}

func (c *ChecksumReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}

// Sum returns the hex-encoded digest of the bytes read so far.
func (c *ChecksumReader) Sum() string {
	return hex.EncodeToString(c.hash.Sum(nil))
}

func (c *ChecksumReader) BytesRead() int64 {
	return c.n
}
