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

package workspace

import (
	"context"
	"fmt"
	"runtime/trace"
	"time"

	"github.com/pkg/errors"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

func (o *ops) EntryInfo(ctx context.Context, path types.FsPath) (info *types.EntryInfo, err error) {
	const operation = "entry_info"
	defer trace.StartRegion(ctx, "workspace.ops.EntryInfo").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	if path.IsRoot() {
		return o.rootEntryInfo(), nil
	}

	resolution, err := o.ResolvePath(ctx, path)
	if err != nil {
		if types.IsInternal(err) {
			return nil, errors.Wrap(err, "cannot resolve path")
		}
		return nil, err
	}

	manifest, err := o.GetChildManifest(ctx, resolution.EntryID)
	if err != nil {
		if types.IsInternal(err) {
			return nil, errors.Wrapf(err, "cannot get manifest (entry id: %s)", resolution.EntryID)
		}
		return nil, err
	}

	switch m := manifest.(type) {
	case *types.LocalFileManifest:
		info = &types.EntryInfo{
			Kind:          types.EntryKindFile,
			ID:            m.Base.ID,
			Created:       m.Base.Created,
			Updated:       m.Updated,
			BaseVersion:   m.Base.Version,
			IsPlaceholder: m.Base.IsPlaceholder(),
			NeedSync:      m.NeedSync,
			Size:          m.Size,
		}
	case *types.LocalFolderManifest:
		children := make([]types.EntryName, 0, len(m.Children))
		for name := range m.Children {
			children = append(children, name)
		}
		info = &types.EntryInfo{
			Kind:          types.EntryKindFolder,
			ID:            m.Base.ID,
			Created:       m.Base.Created,
			Updated:       m.Updated,
			BaseVersion:   m.Base.Version,
			IsPlaceholder: m.Base.IsPlaceholder(),
			NeedSync:      m.NeedSync,
			Children:      children,
		}
	default:
		return nil, types.NewInternalError(fmt.Errorf("unknown manifest type %T", manifest))
	}
	info.ConfinementPoint = resolution.ConfinementPoint
	return info, nil
}

// rootEntryInfo lists the children sorted, other folders are listed in
// storage order.
func (o *ops) rootEntryInfo() *types.EntryInfo {
	root := o.storage.GetWorkspaceManifest()
	children := make([]types.EntryName, 0, len(root.Children))
	for name := range root.Children {
		children = append(children, name)
	}
	types.SortEntryNames(children)

	return &types.EntryInfo{
		Kind:          types.EntryKindFolder,
		ID:            root.Base.ID,
		Created:       root.Base.Created,
		Updated:       root.Updated,
		BaseVersion:   root.Base.Version,
		IsPlaceholder: root.Base.IsPlaceholder(),
		NeedSync:      root.NeedSync,
		Children:      children,
	}
}
