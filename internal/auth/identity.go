// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"crypto/md5" //nolint:gosec // not used for security, only for stable usernames
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// UsernameLength is the length of generated usernames.
const UsernameLength = 30

// maxUsernameAttempts bounds the search for a free username.
const maxUsernameAttempts = 100

// ErrInvalidEmail is returned for addresses that do not parse.
var ErrInvalidEmail = errors.New("enter a valid email address")

// ErrNoFreeUsername is returned when every candidate username is taken.
var ErrNoFreeUsername = errors.New("could not allocate a username")

// NormalizeEmail trims and lowercases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// UsernameFor derives the username candidate for an email address: the
// first 30 hex characters of its MD5 digest.
func UsernameFor(email string) string {
	sum := md5.Sum([]byte(email)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:UsernameLength]
}

// UsernameTaken reports whether a username is already in use.
type UsernameTaken func(ctx context.Context, username string) (bool, error)

// GenerateUsername returns a free username for email. When the candidate
// is taken, an "a" is appended to the hashed email and the digest retried.
func GenerateUsername(ctx context.Context, email string, taken UsernameTaken) (string, error) {
	seed := email
	for range maxUsernameAttempts {
		candidate := UsernameFor(seed)
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		seed += "a"
	}
	return "", ErrNoFreeUsername
}

// NewActivationKey returns a random key for account activation links.
func NewActivationKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
