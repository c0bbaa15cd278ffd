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

// FsPathResolution is the entry a path leads to. ConfinementPoint is
// the top-most ancestor hiding one of the path components, if any.
type FsPathResolution struct {
	EntryID          types.EntryID
	ConfinementPoint *types.EntryID
}

func (o *ops) ResolvePath(ctx context.Context, path types.FsPath) (resolution *FsPathResolution, err error) {
	const operation = "resolve_path"
	defer trace.StartRegion(ctx, "workspace.ops.ResolvePath").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	resolution = &FsPathResolution{EntryID: o.realmID}
	for i, name := range path.Parts() {
		var (
			children   map[types.EntryName]types.EntryID
			isConfined func(types.EntryID) bool
			parentID   = resolution.EntryID
		)

		if i == 0 {
			root := o.storage.GetWorkspaceManifest()
			children, isConfined = root.Children, root.IsConfined
		} else {
			manifest, err := o.GetChildManifest(ctx, parentID)
			if err != nil {
				if types.IsInternal(err) {
					return nil, errors.Wrapf(err, "cannot get manifest (entry id: %s)", parentID)
				}
				return nil, err
			}

			switch m := manifest.(type) {
			case *types.LocalFolderManifest:
				children, isConfined = m.Children, m.IsConfined
			case *types.LocalFileManifest:
				return nil, types.ErrNotFound
			default:
				return nil, types.NewInternalError(fmt.Errorf("unknown manifest type %T", manifest))
			}
		}

		childID, ok := children[name]
		if !ok {
			return nil, types.ErrNotFound
		}
		if resolution.ConfinementPoint == nil && isConfined(childID) {
			resolution.ConfinementPoint = parentID.Ptr()
		}
		resolution.EntryID = childID
	}
	return resolution, nil
}
