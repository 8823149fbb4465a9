// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symbols

import "strings"

// Internal names for declarations without a source name. They start
// with "__", which EscapeLeadingUnderscores keeps free for them.
const (
	InternalNameCall         = "__call"
	InternalNameConstructor  = "__constructor"
	InternalNameNew          = "__new"
	InternalNameIndex        = "__index"
	InternalNameExportStar   = "__export"
	InternalNameGlobal       = "__global"
	InternalNameMissing      = "__missing"
	InternalNameType         = "__type"
	InternalNameObject       = "__object"
	InternalNameClass        = "__class"
	InternalNameFunction     = "__function"
	InternalNameComputed     = "__computed"
	InternalNameDefault      = "default"
	InternalNameExportEquals = "export="
	InternalNamePrototype    = "prototype"
)

// EscapeLeadingUnderscores prefixes names starting with "__" with one
// more underscore so they cannot collide with internal names.
func EscapeLeadingUnderscores(name string) string {
	if strings.HasPrefix(name, "__") {
		return "_" + name
	}
	return name
}

// UnescapeLeadingUnderscores reverses EscapeLeadingUnderscores.
func UnescapeLeadingUnderscores(escaped string) string {
	if strings.HasPrefix(escaped, "___") {
		return escaped[1:]
	}
	return escaped
}

// IsInternalName reports whether escaped is one of the synthetic names.
func IsInternalName(escaped string) bool {
	switch escaped {
	case InternalNameDefault, InternalNameExportEquals:
		return true
	}
	return strings.HasPrefix(escaped, "__") && !strings.HasPrefix(escaped, "___")
}
