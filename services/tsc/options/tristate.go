// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package options

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tristate is an optional boolean: unset, false or true.
type Tristate uint8

const (
	TSUnknown Tristate = iota
	TSFalse
	TSTrue
)

// TristateOf converts a bool.
func TristateOf(b bool) Tristate {
	if b {
		return TSTrue
	}
	return TSFalse
}

func (t Tristate) IsTrue() bool           { return t == TSTrue }
func (t Tristate) IsFalse() bool          { return t == TSFalse }
func (t Tristate) IsUnknown() bool        { return t == TSUnknown }
func (t Tristate) IsTrueOrUnknown() bool  { return t != TSFalse }
func (t Tristate) IsFalseOrUnknown() bool { return t != TSTrue }

// DefaultIfUnknown returns def when t is unset.
func (t Tristate) DefaultIfUnknown(def bool) bool {
	if t == TSUnknown {
		return def
	}
	return t == TSTrue
}

func (t Tristate) String() string {
	switch t {
	case TSTrue:
		return "true"
	case TSFalse:
		return "false"
	default:
		return "unknown"
	}
}

func (t *Tristate) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err != nil {
		return fmt.Errorf("%w: expected a boolean at line %d", ErrInvalidConfig, value.Line)
	}
	*t = TristateOf(b)
	return nil
}
