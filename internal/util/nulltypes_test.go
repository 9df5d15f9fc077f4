// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"
	"time"
)

func TestParseNullDate(t *testing.T) {
	got, err := ParseNullDate("1990-05-17")
	if err != nil {
		t.Fatalf("ParseNullDate: %v", err)
	}
	if !got.Valid || got.Time.Year() != 1990 || got.Time.Month() != time.May || got.Time.Day() != 17 {
		t.Errorf("ParseNullDate = %v", got)
	}

	blank, err := ParseNullDate("  ")
	if err != nil || blank.Valid {
		t.Errorf("blank date = %v, %v; want invalid, nil", blank, err)
	}

	if _, err := ParseNullDate("17/05/1990"); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestParseNullDateTimeLocal(t *testing.T) {
	got, err := ParseNullDateTimeLocal("2026-03-01T09:30", time.UTC)
	if err != nil {
		t.Fatalf("ParseNullDateTimeLocal: %v", err)
	}
	want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if !got.Valid || !got.Time.Equal(want) {
		t.Errorf("ParseNullDateTimeLocal = %v, want %v", got.Time, want)
	}

	if _, err := ParseNullDateTimeLocal("tomorrow", time.UTC); err == nil {
		t.Error("expected error for invalid datetime")
	}
}
