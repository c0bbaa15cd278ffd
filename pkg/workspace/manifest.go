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

	"github.com/hyponet/eventbus"
	"github.com/pkg/errors"

	"github.com/chinmaym07/parsec-cloud/pkg/events"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

const eventSource = "workspaceOps"

func (o *ops) GetChildManifest(ctx context.Context, entryID types.EntryID) (manifest types.ChildManifest, err error) {
	const operation = "get_child_manifest"
	defer trace.StartRegion(ctx, "workspace.ops.GetChildManifest").End()
	defer logOperationLatency(operation, time.Now())
	defer func() { logOperationError(operation, err) }()

	manifest, err = o.storage.GetChildManifest(ctx, entryID)
	if err == nil {
		return manifest, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		o.logger.Errorw("query local manifest failed", "entry", entryID.String(), "err", err)
		return nil, types.NewInternalError(err)
	}

	remoteManifest, err := o.remote.FetchChildManifest(ctx, entryID, nil)
	if err != nil {
		if errors.Is(err, types.ErrBadVersion) {
			// no version was asked for
			o.logger.Errorw("server reported bad version on a latest read", "entry", entryID.String())
			return nil, types.NewInternalError(errors.Wrap(err, "unexpected server response"))
		}
		o.logger.Debugw("fetch remote manifest failed", "entry", entryID.String(), "err", err)
		return nil, err
	}
	if remoteManifest.GetBase().ID != entryID {
		return nil, types.NewInternalError(fmt.Errorf("server returned manifest %s", remoteManifest.GetBase().ID))
	}

	return o.insertRemoteManifest(ctx, entryID, remoteManifest)
}

// insertRemoteManifest stores the converted remote manifest, unless
// a concurrent resolution has already done it in which case that one
// wins and is returned.
func (o *ops) insertRemoteManifest(ctx context.Context, entryID types.EntryID, remoteManifest types.RemoteChildManifest) (types.ChildManifest, error) {
	updater, existing, err := o.storage.ForUpdateChildManifest(ctx, entryID)
	if err != nil {
		o.logger.Errorw("open manifest update scope failed", "entry", entryID.String(), "err", err)
		return nil, types.NewInternalError(err)
	}
	defer updater.Release()

	if existing != nil {
		return existing, nil
	}

	var manifest types.ChildManifest
	switch m := remoteManifest.(type) {
	case *types.RemoteFolderManifest:
		local := types.LocalFolderManifestFromRemote(m)
		err = updater.SetFolderManifest(ctx, local)
		manifest = local
	case *types.RemoteFileManifest:
		local := types.LocalFileManifestFromRemote(m)
		err = updater.SetFileManifest(ctx, local)
		manifest = local
	default:
		err = fmt.Errorf("unknown remote manifest type %T", remoteManifest)
	}
	if err != nil {
		o.logger.Errorw("store fetched manifest failed", "entry", entryID.String(), "err", err)
		return nil, types.NewInternalError(err)
	}

	eventbus.Publish(events.ManifestActionTopic(events.TopicManifestActionFmt, events.ActionTypeFetched),
		events.BuildManifestEvent(events.ActionTypeFetched, eventSource, manifest))
	return manifest, nil
}
