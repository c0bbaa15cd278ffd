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

	"go.uber.org/zap"

	"github.com/chinmaym07/parsec-cloud/pkg/metastore"
	"github.com/chinmaym07/parsec-cloud/pkg/remote"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
	"github.com/chinmaym07/parsec-cloud/utils/logger"
)

// Ops reads the entry tree of one workspace. Manifests come from the
// local storage first and are fetched from the server on a miss.
type Ops interface {
	RealmID() types.EntryID

	GetChildManifest(ctx context.Context, entryID types.EntryID) (types.ChildManifest, error)
	ResolvePath(ctx context.Context, path types.FsPath) (*FsPathResolution, error)
	EntryInfo(ctx context.Context, path types.FsPath) (*types.EntryInfo, error)
}

func New(storage metastore.ManifestStorage, remoteService remote.ManifestService) Ops {
	return &ops{
		storage: storage,
		remote:  remoteService,
		realmID: storage.RealmID(),
		logger:  logger.NewLogger("workspaceOps").With(zap.String("realm", storage.RealmID().String())),
	}
}

type ops struct {
	storage metastore.ManifestStorage
	remote  remote.ManifestService
	realmID types.EntryID
	logger  *zap.SugaredLogger
}

var _ Ops = &ops{}

func (o *ops) RealmID() types.EntryID {
	return o.realmID
}
