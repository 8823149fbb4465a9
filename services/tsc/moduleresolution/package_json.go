// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package moduleresolution

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrMalformedPackageJSON is returned when a package.json exists but is
// not a JSON object.
var ErrMalformedPackageJSON = errors.New("malformed package.json")

// PackageJSONPathFields is the projection of package.json the resolver
// uses. Unknown fields are dropped; known fields with the wrong JSON type
// are dropped and listed in Mistyped.
type PackageJSONPathFields struct {
	Name                 string            `json:"name,omitempty"`
	Version              string            `json:"version,omitempty"`
	Type                 string            `json:"type,omitempty"`
	Main                 string            `json:"main,omitempty"`
	Types                string            `json:"types,omitempty"`
	Typings              string            `json:"typings,omitempty"`
	TSConfig             string            `json:"tsconfig,omitempty"`
	TypesVersions        TypesVersions     `json:"typesVersions,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`

	// HasExports and HasImports record whether the maps are present. Their
	// contents are not modeled.
	HasExports bool `json:"hasExports,omitempty"`
	HasImports bool `json:"hasImports,omitempty"`

	// Mistyped lists known fields that were present with the wrong type.
	Mistyped []string `json:"-"`
}

// TypesVersionsEntry maps one version range to its path patterns.
type TypesVersionsEntry struct {
	Range string
	Paths map[string][]string
}

// TypesVersions is the typesVersions field in document order. Order
// matters: the first matching range wins.
type TypesVersions []TypesVersionsEntry

// UnmarshalJSON decodes the object keeping key order.
func (tv *TypesVersions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("typesVersions: expected object")
	}
	var out TypesVersions
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var paths map[string][]string
		if err := dec.Decode(&paths); err != nil {
			return fmt.Errorf("typesVersions[%q]: %w", key, err)
		}
		out = append(out, TypesVersionsEntry{Range: key, Paths: paths})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*tv = out
	return nil
}

// MarshalJSON encodes the entries as an object in their stored order.
func (tv TypesVersions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range tv {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Range)
		if err != nil {
			return nil, err
		}
		paths, err := json.Marshal(e.Paths)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(paths)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parsePackageJSON decodes data into the modeled fields.
func parsePackageJSON(data []byte) (PackageJSONPathFields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("not an object")
		}
		return PackageJSONPathFields{}, fmt.Errorf("%w: %v", ErrMalformedPackageJSON, err)
	}

	var f PackageJSONPathFields
	field := func(name string, out any) {
		value, ok := raw[name]
		if !ok || string(value) == "null" {
			return
		}
		if err := json.Unmarshal(value, out); err != nil {
			f.Mistyped = append(f.Mistyped, name)
		}
	}
	field("name", &f.Name)
	field("version", &f.Version)
	field("type", &f.Type)
	field("main", &f.Main)
	field("types", &f.Types)
	field("typings", &f.Typings)
	field("tsconfig", &f.TSConfig)
	field("typesVersions", &f.TypesVersions)
	field("dependencies", &f.Dependencies)
	field("peerDependencies", &f.PeerDependencies)
	field("optionalDependencies", &f.OptionalDependencies)
	_, f.HasExports = raw["exports"]
	_, f.HasImports = raw["imports"]
	return f, nil
}

// PackageJSONContents is the parsed package.json shared by every
// PackageJSONInfo that points at the same file.
//
// Thread Safety: Safe for concurrent use. Derived values are computed
// once.
type PackageJSONContents struct {
	Fields PackageJSONPathFields

	versionPathsOnce sync.Once
	versionPaths     *VersionPaths
}

// NewPackageJSONContents wraps parsed fields.
func NewPackageJSONContents(fields PackageJSONPathFields) *PackageJSONContents {
	return &PackageJSONContents{Fields: fields}
}

// VersionPaths returns the typesVersions entry selected for
// TypeScriptVersion, or nil. The selection is computed on first use.
func (c *PackageJSONContents) VersionPaths() *VersionPaths {
	c.versionPathsOnce.Do(func() {
		c.versionPaths, _ = SelectTypesVersions(c.Fields.TypesVersions, TypeScriptVersion)
	})
	return c.versionPaths
}

// CacheEntry is the result of probing one directory for package.json:
// either *PackageJSONInfo or *MissingPackageJSONInfo.
type CacheEntry interface {
	// Directory is the probed directory.
	Directory() string
	isCacheEntry()
}

// PackageJSONInfo is a package.json that was found and parsed.
type PackageJSONInfo struct {
	PackageDirectory string
	Contents         *PackageJSONContents
}

// MissingPackageJSONInfo records that a directory has no package.json.
type MissingPackageJSONInfo struct {
	PackageDirectory string

	// DirectoryExists is false when the directory itself was absent.
	DirectoryExists bool
}

func (p *PackageJSONInfo) Directory() string        { return p.PackageDirectory }
func (m *MissingPackageJSONInfo) Directory() string { return m.PackageDirectory }
func (*PackageJSONInfo) isCacheEntry()              {}
func (*MissingPackageJSONInfo) isCacheEntry()       {}

// withDirectory returns p, or a copy sharing p's contents whose directory
// is dir.
func (p *PackageJSONInfo) withDirectory(dir string) *PackageJSONInfo {
	if p.PackageDirectory == dir {
		return p
	}
	return &PackageJSONInfo{PackageDirectory: dir, Contents: p.Contents}
}

// Type returns the package's "type" field, or "".
func (p *PackageJSONInfo) Type() string {
	if p == nil || p.Contents == nil {
		return ""
	}
	return p.Contents.Fields.Type
}
