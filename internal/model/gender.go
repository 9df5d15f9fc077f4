// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Gender codes stored on author profiles.
const (
	GenderMale           = "M"
	GenderFemale         = "F"
	GenderOther          = "O"
	GenderPreferNotToSay = "P"
)

// Choice is a value/label pair for select inputs.
type Choice struct {
	Value string
	Label string
}

// GenderChoices lists the selectable genders in display order.
var GenderChoices = []Choice{
	{GenderMale, "Male"},
	{GenderFemale, "Female"},
	{GenderOther, "Others"},
	{GenderPreferNotToSay, "Prefer Not To Say"},
}

// GenderLabel returns the display label for a gender code, or "" if unknown.
func GenderLabel(code string) string {
	for _, c := range GenderChoices {
		if c.Value == code {
			return c.Label
		}
	}
	return ""
}

// IsValidGender reports whether code is one of GenderChoices.
func IsValidGender(code string) bool {
	return GenderLabel(code) != ""
}
