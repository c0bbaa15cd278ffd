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

// BaseManifest is the last version of an entry acknowledged by the server.
// Version 0 means the entry has never been synchronized.
type BaseManifest struct {
	ID        EntryID    `json:"id"`
	Parent    EntryID    `json:"parent"`
	Author    string     `json:"author"`
	Timestamp time.Time  `json:"timestamp"`
	Version   VersionInt `json:"version"`
	Created   time.Time  `json:"created"`
	Updated   time.Time  `json:"updated"`
}

func (b BaseManifest) IsPlaceholder() bool {
	return b.Version == 0
}

// ChildManifest is either a *LocalFolderManifest or a *LocalFileManifest.
// No other implementation exists, callers switch over both cases.
type ChildManifest interface {
	EntryID() EntryID
	BaseVersion() VersionInt
	isChildManifest()
}

type LocalFolderManifest struct {
	Base                   BaseManifest
	Parent                 EntryID
	Updated                time.Time
	NeedSync               bool
	Children               map[EntryName]EntryID
	LocalConfinementPoints map[EntryID]struct{}
}

var _ ChildManifest = &LocalFolderManifest{}

func (m *LocalFolderManifest) EntryID() EntryID        { return m.Base.ID }
func (m *LocalFolderManifest) BaseVersion() VersionInt { return m.Base.Version }
func (m *LocalFolderManifest) isChildManifest()        {}

func (m *LocalFolderManifest) IsConfined(child EntryID) bool {
	_, ok := m.LocalConfinementPoints[child]
	return ok
}

func (m *LocalFolderManifest) Clone() *LocalFolderManifest {
	nm := *m
	nm.Children = cloneChildren(m.Children)
	nm.LocalConfinementPoints = cloneConfinementPoints(m.LocalConfinementPoints)
	return &nm
}

type LocalFileManifest struct {
	Base      BaseManifest
	Parent    EntryID
	Updated   time.Time
	NeedSync  bool
	Size      SizeInt
	Blocksize SizeInt
}

var _ ChildManifest = &LocalFileManifest{}

func (m *LocalFileManifest) EntryID() EntryID        { return m.Base.ID }
func (m *LocalFileManifest) BaseVersion() VersionInt { return m.Base.Version }
func (m *LocalFileManifest) isChildManifest()        {}

func (m *LocalFileManifest) Clone() *LocalFileManifest {
	nm := *m
	return &nm
}

// LocalWorkspaceManifest is the root of the tree, its id is the realm id.
type LocalWorkspaceManifest struct {
	Base                   BaseManifest
	Updated                time.Time
	NeedSync               bool
	Children               map[EntryName]EntryID
	LocalConfinementPoints map[EntryID]struct{}
}

func (m *LocalWorkspaceManifest) IsConfined(child EntryID) bool {
	_, ok := m.LocalConfinementPoints[child]
	return ok
}

func (m *LocalWorkspaceManifest) Clone() *LocalWorkspaceManifest {
	nm := *m
	nm.Children = cloneChildren(m.Children)
	nm.LocalConfinementPoints = cloneConfinementPoints(m.LocalConfinementPoints)
	return &nm
}

func NewLocalWorkspaceManifest(realmID EntryID, author string, now time.Time) *LocalWorkspaceManifest {
	return &LocalWorkspaceManifest{
		Base: BaseManifest{
			ID:        realmID,
			Author:    author,
			Timestamp: now,
			Created:   now,
			Updated:   now,
		},
		Updated:                now,
		NeedSync:               true,
		Children:               map[EntryName]EntryID{},
		LocalConfinementPoints: map[EntryID]struct{}{},
	}
}

// RemoteChildManifest is either a *RemoteFolderManifest or a *RemoteFileManifest.
type RemoteChildManifest interface {
	GetBase() BaseManifest
	isRemoteChildManifest()
}

type RemoteFolderManifest struct {
	Base     BaseManifest
	Children map[EntryName]EntryID
}

func (m *RemoteFolderManifest) GetBase() BaseManifest { return m.Base }
func (m *RemoteFolderManifest) isRemoteChildManifest() {}

type RemoteFileManifest struct {
	Base      BaseManifest
	Size      SizeInt
	Blocksize SizeInt
}

func (m *RemoteFileManifest) GetBase() BaseManifest { return m.Base }
func (m *RemoteFileManifest) isRemoteChildManifest() {}

func LocalFolderManifestFromRemote(remote *RemoteFolderManifest) *LocalFolderManifest {
	return &LocalFolderManifest{
		Base:                   remote.Base,
		Parent:                 remote.Base.Parent,
		Updated:                remote.Base.Updated,
		NeedSync:               false,
		Children:               cloneChildren(remote.Children),
		LocalConfinementPoints: map[EntryID]struct{}{},
	}
}

func LocalFileManifestFromRemote(remote *RemoteFileManifest) *LocalFileManifest {
	return &LocalFileManifest{
		Base:      remote.Base,
		Parent:    remote.Base.Parent,
		Updated:   remote.Base.Updated,
		NeedSync:  false,
		Size:      remote.Size,
		Blocksize: remote.Blocksize,
	}
}

func cloneChildren(children map[EntryName]EntryID) map[EntryName]EntryID {
	result := make(map[EntryName]EntryID, len(children))
	for name, id := range children {
		result[name] = id
	}
	return result
}

func cloneConfinementPoints(points map[EntryID]struct{}) map[EntryID]struct{} {
	result := make(map[EntryID]struct{}, len(points))
	for id := range points {
		result[id] = struct{}{}
	}
	return result
}
