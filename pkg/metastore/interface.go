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

package metastore

import (
	"context"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

// ManifestStorage is the local, offline-first store of manifests.
type ManifestStorage interface {
	RealmID() types.EntryID

	// GetWorkspaceManifest never fails, the workspace manifest is always
	// resident. The returned snapshot must not be modified.
	GetWorkspaceManifest() *types.LocalWorkspaceManifest
	SetWorkspaceManifest(ctx context.Context, manifest *types.LocalWorkspaceManifest) error

	// GetChildManifest returns types.ErrNotFound on a cache miss.
	GetChildManifest(ctx context.Context, id types.EntryID) (types.ChildManifest, error)

	// ForUpdateChildManifest opens the exclusive update scope of an entry.
	// If a manifest already exists it is returned and the scope is already
	// released, otherwise the caller must either commit through the updater
	// or call Release.
	ForUpdateChildManifest(ctx context.Context, id types.EntryID) (ChildManifestUpdater, types.ChildManifest, error)

	Close() error
}

// ChildManifestUpdater commits at most one manifest. Both setters release
// the update scope, Release is safe to call several times.
type ChildManifestUpdater interface {
	SetFileManifest(ctx context.Context, manifest *types.LocalFileManifest) error
	SetFolderManifest(ctx context.Context, manifest *types.LocalFolderManifest) error
	Release()
}
