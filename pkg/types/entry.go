/*
 Copyright 2023 Parsec Cloud Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package types

import (
	"bytes"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	entryNameMaxLength = 255
	pathSeparator      = "/"
)

var ErrInvalidEntryName = errors.New("invalid entry name")

type (
	VersionInt uint32
	SizeInt    uint64
)

// EntryID identifies a tree node independently of its path. It stays
// stable for the whole lifetime of the node.
type EntryID uuid.UUID

func NewEntryID() EntryID {
	return EntryID(uuid.New())
}

func ParseEntryID(s string) (EntryID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

func MustParseEntryID(s string) EntryID {
	return EntryID(uuid.MustParse(s))
}

func (i EntryID) String() string {
	return uuid.UUID(i).String()
}

func (i EntryID) IsZero() bool {
	return i == EntryID{}
}

func (i EntryID) MarshalText() ([]byte, error) {
	return uuid.UUID(i).MarshalText()
}

func (i *EntryID) UnmarshalText(data []byte) error {
	u := uuid.UUID{}
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*i = EntryID(u)
	return nil
}

func (i EntryID) Ptr() *EntryID {
	return &i
}

// EntryName is a single path segment. Comparison is byte-wise.
type EntryName string

func NewEntryName(name string) (EntryName, error) {
	switch {
	case name == "", name == ".", name == "..":
		return "", ErrInvalidEntryName
	case len(name) > entryNameMaxLength:
		return "", ErrInvalidEntryName
	case strings.Contains(name, pathSeparator), strings.ContainsRune(name, 0):
		return "", ErrInvalidEntryName
	}
	return EntryName(name), nil
}

func MustEntryName(name string) EntryName {
	en, err := NewEntryName(name)
	if err != nil {
		panic(err)
	}
	return en
}

func (n EntryName) String() string {
	return string(n)
}

func (n *EntryName) UnmarshalText(data []byte) error {
	en, err := NewEntryName(string(data))
	if err != nil {
		return err
	}
	*n = en
	return nil
}

func SortEntryNames(names []EntryName) {
	sort.Slice(names, func(i, j int) bool {
		return bytes.Compare([]byte(names[i]), []byte(names[j])) < 0
	})
}

// FsPath is an absolute path inside a workspace, the empty path being
// the workspace root.
type FsPath struct {
	parts []EntryName
}

func ParseFsPath(raw string) (FsPath, error) {
	if !strings.HasPrefix(raw, pathSeparator) {
		return FsPath{}, ErrInvalidEntryName
	}
	var p FsPath
	for _, seg := range strings.Split(raw, pathSeparator) {
		if seg == "" {
			continue
		}
		name, err := NewEntryName(seg)
		if err != nil {
			return FsPath{}, err
		}
		p.parts = append(p.parts, name)
	}
	return p, nil
}

func MustParseFsPath(raw string) FsPath {
	p, err := ParseFsPath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func NewFsPath(parts ...EntryName) FsPath {
	return FsPath{parts: append([]EntryName(nil), parts...)}
}

func (p FsPath) IsRoot() bool {
	return len(p.parts) == 0
}

func (p FsPath) Parts() []EntryName {
	return append([]EntryName(nil), p.parts...)
}

func (p FsPath) Name() (EntryName, bool) {
	if p.IsRoot() {
		return "", false
	}
	return p.parts[len(p.parts)-1], true
}

func (p FsPath) Parent() FsPath {
	if p.IsRoot() {
		return p
	}
	return NewFsPath(p.parts[:len(p.parts)-1]...)
}

func (p FsPath) Join(name EntryName) FsPath {
	parts := make([]EntryName, 0, len(p.parts)+1)
	parts = append(parts, p.parts...)
	return FsPath{parts: append(parts, name)}
}

func (p FsPath) String() string {
	if p.IsRoot() {
		return pathSeparator
	}
	buf := strings.Builder{}
	for _, part := range p.parts {
		buf.WriteString(pathSeparator)
		buf.WriteString(string(part))
	}
	return buf.String()
}
