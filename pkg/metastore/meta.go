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
	"fmt"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

func NewManifestStorage(meta config.Meta, workspace config.Workspace, cache *config.Cache) (ManifestStorage, error) {
	realmID, err := types.ParseEntryID(workspace.RealmID)
	if err != nil {
		return nil, fmt.Errorf("parse realm id failed: %w", err)
	}
	var store *sqlManifestStore
	switch meta.Type {
	case MemoryMeta:
		meta.Path = ":memory:"
		store, err = newSqliteManifestStore(meta, realmID, workspace.DeviceID, cache)
	case SqliteMeta:
		store, err = newSqliteManifestStore(meta, realmID, workspace.DeviceID, cache)
	case PostgresMeta:
		store, err = newPostgresManifestStore(meta, realmID, workspace.DeviceID, cache)
	default:
		return nil, fmt.Errorf("unknow meta store type: %s", meta.Type)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
