// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	HeaderAPIKey      = "x-api-key-id"
	HeaderSignature   = "x-signature"
	HeaderTimestamp   = "x-timestamp"
	HeaderContentHash = "x-content-sha256"
)

// Signer injects HMAC auth headers expected by the gateway control plane.
type Signer struct {
	Key    string
	Secret string
	Now    func() time.Time
}

// NewSigner constructs a signer with the provided key/secret and sane defaults.
func NewSigner(key, secret string) *Signer {
	return &Signer{
		Key:    key,
		Secret: secret,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AttachSignature mutates the request by injecting auth headers computed from
// the method, target path, timestamp and a digest of the body. The body is
// buffered and restored so the request can still be sent.
func (s *Signer) AttachSignature(req *http.Request) error {
	if s.Key == "" || s.Secret == "" {
		return fmt.Errorf("signer key and secret must be set")
	}

	digest, err := bodyDigest(req)
	if err != nil {
		return err
	}

	timestamp := s.Now().Format(time.RFC3339)

	payload := strings.Join([]string{
		req.Method,
		req.URL.Path,
		timestamp,
		digest,
	}, "\n")

	mac := hmac.New(sha256.New, []byte(s.Secret))
	if _, err := mac.Write([]byte(payload)); err != nil {
		return fmt.Errorf("compute signature: %w", err)
	}

	req.Header.Set(HeaderAPIKey, s.Key)
	req.Header.Set(HeaderSignature, hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderContentHash, digest)

	return nil
}

func bodyDigest(req *http.Request) (string, error) {
	sum := sha256.New()
	if req.Body == nil || req.Body == http.NoBody {
		return hex.EncodeToString(sum.Sum(nil)), nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return "", fmt.Errorf("close request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}

	sum.Write(raw)
	return hex.EncodeToString(sum.Sum(nil)), nil
}
