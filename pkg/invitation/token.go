// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// newToken returns 32 random bytes encoded as unpadded base64url.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
