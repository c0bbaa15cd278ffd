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
	"time"
)

type EntryKind string

const (
	EntryKindFile   EntryKind = "file"
	EntryKindFolder EntryKind = "folder"
)

// EntryInfo is the public summary of an entry. Size is only meaningful
// for files and Children only for folders.
type EntryInfo struct {
	Kind EntryKind `json:"kind"`

	// ConfinementPoint is the id of the top-most folderish manifest on
	// the path that hides a child with a confined name, nil otherwise.
	ConfinementPoint *EntryID    `json:"confinement_point,omitempty"`
	ID               EntryID     `json:"id"`
	Created          time.Time   `json:"created"`
	Updated          time.Time   `json:"updated"`
	BaseVersion      VersionInt  `json:"base_version"`
	IsPlaceholder    bool        `json:"is_placeholder"`
	NeedSync         bool        `json:"need_sync"`
	Size             SizeInt     `json:"size,omitempty"`
	Children         []EntryName `json:"children,omitempty"`
}

func (i *EntryInfo) IsFile() bool {
	return i.Kind == EntryKindFile
}

func (i *EntryInfo) IsFolder() bool {
	return i.Kind == EntryKindFolder
}
