// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"testing"
)

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name       string
		components []string
		wantErr    bool
	}{
		{"simple", []string{"images", "a.jpg"}, false},
		{"nested", []string{"profile_images", "thumb", "b.png"}, false},
		{"traversal", []string{"..", "etc", "passwd"}, true},
		{"embedded traversal", []string{"images", "../../x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoinPath(base, tt.components...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeJoinPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				want := filepath.Join(append([]string{base}, tt.components...)...)
				if got != want {
					t.Errorf("SafeJoinPath() = %q, want %q", got, want)
				}
			}
		})
	}
}

func TestValidatePathWithinBase_SiblingPrefix(t *testing.T) {
	base := filepath.Join(t.TempDir(), "uploads")
	if err := ValidatePathWithinBase(base, base+"-evil/file"); err == nil {
		t.Error("sibling directory sharing a prefix should be rejected")
	}
	if err := ValidatePathWithinBase(base, base); err != nil {
		t.Errorf("base itself should be accepted: %v", err)
	}
}

func TestCleanObjectKey(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"images/a.jpg", "images/a.jpg", false},
		{"profile_images/b.png", "profile_images/b.png", false},
		{"/etc/passwd", "", true},
		{"../secret", "", true},
		{"images/../../secret", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := CleanObjectKey(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("CleanObjectKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanObjectKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
