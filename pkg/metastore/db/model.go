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

package db

import (
	"fmt"
	"math"
	"time"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
	"github.com/chinmaym07/parsec-cloud/utils/codec"
)

const (
	ManifestKindWorkspace = "workspace"
	ManifestKindFolder    = "folder"
	ManifestKindFile      = "file"
)

type SystemInfo struct {
	RealmID  string `gorm:"column:realm_id;primaryKey"`
	DeviceID string `gorm:"column:device_id"`
}

func (i SystemInfo) TableName() string {
	return "system_info"
}

type Manifest struct {
	ID            string `gorm:"column:id;primaryKey"`
	Kind          string `gorm:"column:kind;index:manifest_kind"`
	ParentID      string `gorm:"column:parent_id;index:manifest_parent"`
	Author        string `gorm:"column:author"`
	BaseVersion   int64  `gorm:"column:base_version"`
	BaseTimestamp int64  `gorm:"column:base_timestamp"`
	BaseCreated   int64  `gorm:"column:base_created"`
	BaseUpdated   int64  `gorm:"column:base_updated"`
	Updated       int64  `gorm:"column:updated"`
	NeedSync      bool   `gorm:"column:need_sync"`
	Size          int64  `gorm:"column:size"`
	Blocksize     int64  `gorm:"column:blocksize"`
	Children      []byte `gorm:"column:children"`
	Confinement   []byte `gorm:"column:local_confinement_points"`
}

func (m *Manifest) TableName() string {
	return "manifest"
}

func (m *Manifest) updateBase(base types.BaseManifest) {
	m.ID = base.ID.String()
	m.ParentID = base.Parent.String()
	m.Author = base.Author
	m.BaseVersion = int64(base.Version)
	m.BaseTimestamp = base.Timestamp.UnixNano()
	m.BaseCreated = base.Created.UnixNano()
	m.BaseUpdated = base.Updated.UnixNano()
}

func (m *Manifest) UpdateFromFolder(folder *types.LocalFolderManifest) error {
	var err error
	m.updateBase(folder.Base)
	m.Kind = ManifestKindFolder
	m.ParentID = folder.Parent.String()
	m.Updated = folder.Updated.UnixNano()
	m.NeedSync = folder.NeedSync
	if m.Children, err = encodeChildren(folder.Children); err != nil {
		return err
	}
	m.Confinement, err = encodeConfinementPoints(folder.LocalConfinementPoints)
	return err
}

func (m *Manifest) UpdateFromFile(file *types.LocalFileManifest) error {
	// sizes are stored in signed columns
	if file.Size > math.MaxInt64 || file.Blocksize > math.MaxInt64 {
		return fmt.Errorf("file size %d or blocksize %d out of range", file.Size, file.Blocksize)
	}
	m.updateBase(file.Base)
	m.Kind = ManifestKindFile
	m.ParentID = file.Parent.String()
	m.Updated = file.Updated.UnixNano()
	m.NeedSync = file.NeedSync
	m.Size = int64(file.Size)
	m.Blocksize = int64(file.Blocksize)
	return nil
}

func (m *Manifest) UpdateFromWorkspace(ws *types.LocalWorkspaceManifest) error {
	var err error
	m.updateBase(ws.Base)
	m.Kind = ManifestKindWorkspace
	m.Updated = ws.Updated.UnixNano()
	m.NeedSync = ws.NeedSync
	if m.Children, err = encodeChildren(ws.Children); err != nil {
		return err
	}
	m.Confinement, err = encodeConfinementPoints(ws.LocalConfinementPoints)
	return err
}

func (m *Manifest) base() (types.BaseManifest, error) {
	id, err := types.ParseEntryID(m.ID)
	if err != nil {
		return types.BaseManifest{}, err
	}
	parent, err := types.ParseEntryID(m.ParentID)
	if err != nil {
		return types.BaseManifest{}, err
	}
	return types.BaseManifest{
		ID:        id,
		Parent:    parent,
		Author:    m.Author,
		Timestamp: time.Unix(0, m.BaseTimestamp),
		Version:   types.VersionInt(m.BaseVersion),
		Created:   time.Unix(0, m.BaseCreated),
		Updated:   time.Unix(0, m.BaseUpdated),
	}, nil
}

func (m *Manifest) ToChildManifest() (types.ChildManifest, error) {
	base, err := m.base()
	if err != nil {
		return nil, err
	}
	switch m.Kind {
	case ManifestKindFolder:
		children, err := decodeChildren(m.Children)
		if err != nil {
			return nil, err
		}
		points, err := decodeConfinementPoints(m.Confinement)
		if err != nil {
			return nil, err
		}
		return &types.LocalFolderManifest{
			Base:                   base,
			Parent:                 base.Parent,
			Updated:                time.Unix(0, m.Updated),
			NeedSync:               m.NeedSync,
			Children:               children,
			LocalConfinementPoints: points,
		}, nil
	case ManifestKindFile:
		return &types.LocalFileManifest{
			Base:      base,
			Parent:    base.Parent,
			Updated:   time.Unix(0, m.Updated),
			NeedSync:  m.NeedSync,
			Size:      types.SizeInt(m.Size),
			Blocksize: types.SizeInt(m.Blocksize),
		}, nil
	default:
		return nil, types.ErrNotFound
	}
}

func (m *Manifest) ToWorkspaceManifest() (*types.LocalWorkspaceManifest, error) {
	if m.Kind != ManifestKindWorkspace {
		return nil, types.ErrNotFound
	}
	base, err := m.base()
	if err != nil {
		return nil, err
	}
	children, err := decodeChildren(m.Children)
	if err != nil {
		return nil, err
	}
	points, err := decodeConfinementPoints(m.Confinement)
	if err != nil {
		return nil, err
	}
	return &types.LocalWorkspaceManifest{
		Base:                   base,
		Updated:                time.Unix(0, m.Updated),
		NeedSync:               m.NeedSync,
		Children:               children,
		LocalConfinementPoints: points,
	}, nil
}

func encodeChildren(children map[types.EntryName]types.EntryID) ([]byte, error) {
	raw := make(map[string]string, len(children))
	for name, id := range children {
		raw[string(name)] = id.String()
	}
	return codec.Marshal(raw)
}

func decodeChildren(data []byte) (map[types.EntryName]types.EntryID, error) {
	raw := make(map[string]string)
	if len(data) > 0 {
		if err := codec.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	children := make(map[types.EntryName]types.EntryID, len(raw))
	for name, rawID := range raw {
		en, err := types.NewEntryName(name)
		if err != nil {
			return nil, err
		}
		id, err := types.ParseEntryID(rawID)
		if err != nil {
			return nil, err
		}
		children[en] = id
	}
	return children, nil
}

func encodeConfinementPoints(points map[types.EntryID]struct{}) ([]byte, error) {
	raw := make([]string, 0, len(points))
	for id := range points {
		raw = append(raw, id.String())
	}
	return codec.Marshal(raw)
}

func decodeConfinementPoints(data []byte) (map[types.EntryID]struct{}, error) {
	var raw []string
	if len(data) > 0 {
		if err := codec.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	points := make(map[types.EntryID]struct{}, len(raw))
	for _, rawID := range raw {
		id, err := types.ParseEntryID(rawID)
		if err != nil {
			return nil, err
		}
		points[id] = struct{}{}
	}
	return points, nil
}
