// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Config types
const (
	ConfigTypeString = "string"
	ConfigTypeInt    = "int"
	ConfigTypeBool   = "bool"
)

// Config keys
const (
	ConfigKeySiteName        = "site_name"
	ConfigKeySiteDescription = "site_description"
	ConfigKeyAllowComments   = "allow_comments"
	ConfigKeyAllowSignup     = "allow_registration"
	ConfigKeySidebarSize     = "sidebar_size"
)

// ConfigDefault describes a configuration key and the value served while
// it has never been saved.
type ConfigDefault struct {
	Key         string
	Value       string
	Type        string
	Description string
}

// ConfigDefaults is the full set of site configuration keys. The admin can
// edit these but cannot add or remove keys.
var ConfigDefaults = []ConfigDefault{
	{ConfigKeySiteName, "Blango", ConfigTypeString, "Site name shown in the header and page titles"},
	{ConfigKeySiteDescription, "A blog about everything", ConfigTypeString, "Short description used in meta tags"},
	{ConfigKeyAllowComments, "true", ConfigTypeBool, "Allow signed-in users to comment on posts"},
	{ConfigKeyAllowSignup, "true", ConfigTypeBool, "Allow visitors to register accounts"},
	{ConfigKeySidebarSize, "5", ConfigTypeInt, "Number of posts in each sidebar list"},
}

// LookupConfigDefault returns the default for key.
func LookupConfigDefault(key string) (ConfigDefault, bool) {
	for _, d := range ConfigDefaults {
		if d.Key == key {
			return d, true
		}
	}
	return ConfigDefault{}, false
}
