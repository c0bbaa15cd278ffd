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
	"errors"
	"sync"
	"time"

	. "github.com/onsi/gomega"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/metastore"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

const testDevice = "alice@dev1"

type fakeRemote struct {
	mux       sync.Mutex
	manifests map[types.EntryID]types.RemoteChildManifest
	errs      map[types.EntryID]error
	fetches   map[types.EntryID]int
	gate      chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		manifests: map[types.EntryID]types.RemoteChildManifest{},
		errs:      map[types.EntryID]error{},
		fetches:   map[types.EntryID]int{},
	}
}

func (r *fakeRemote) FetchChildManifest(ctx context.Context, id types.EntryID, version *types.VersionInt) (types.RemoteChildManifest, error) {
	r.mux.Lock()
	r.fetches[id]++
	gate := r.gate
	manifest, err := r.manifests[id], r.errs[id]
	r.mux.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, types.ErrNotFound
	}
	return manifest, nil
}

func (r *fakeRemote) fetchCount(id types.EntryID) int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.fetches[id]
}

func (r *fakeRemote) put(manifest types.RemoteChildManifest) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.manifests[manifest.GetBase().ID] = manifest
}

func (r *fakeRemote) fail(id types.EntryID, err error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.errs[id] = err
}

// faultyStorage breaks local reads of one entry.
type faultyStorage struct {
	metastore.ManifestStorage
	brokenID types.EntryID
}

func (s *faultyStorage) GetChildManifest(ctx context.Context, id types.EntryID) (types.ChildManifest, error) {
	if id == s.brokenID {
		return nil, errors.New("disk I/O error")
	}
	return s.ManifestStorage.GetChildManifest(ctx, id)
}

func newMemoryStorage() metastore.ManifestStorage {
	storage, err := metastore.NewManifestStorage(
		config.Meta{Type: config.MemoryMeta},
		config.Workspace{RealmID: types.NewEntryID().String(), DeviceID: testDevice},
		nil,
	)
	Expect(err).Should(BeNil())
	return storage
}

func newBase(id, parent types.EntryID, version types.VersionInt) types.BaseManifest {
	now := time.Now()
	return types.BaseManifest{
		ID:        id,
		Parent:    parent,
		Author:    testDevice,
		Timestamp: now,
		Version:   version,
		Created:   now,
		Updated:   now,
	}
}

// treeBuilder fills the local storage.
type treeBuilder struct {
	storage metastore.ManifestStorage
}

func (b treeBuilder) rootChild(name string, id types.EntryID, confined bool) {
	root := b.storage.GetWorkspaceManifest().Clone()
	root.Children[types.MustEntryName(name)] = id
	if confined {
		root.LocalConfinementPoints[id] = struct{}{}
	}
	Expect(b.storage.SetWorkspaceManifest(context.TODO(), root)).Should(BeNil())
}

func (b treeBuilder) folder(id, parent types.EntryID, version types.VersionInt, children map[string]types.EntryID, confined ...types.EntryID) *types.LocalFolderManifest {
	folder := &types.LocalFolderManifest{
		Base:                   newBase(id, parent, version),
		Parent:                 parent,
		Updated:                time.Now(),
		Children:               map[types.EntryName]types.EntryID{},
		LocalConfinementPoints: map[types.EntryID]struct{}{},
	}
	for name, childID := range children {
		folder.Children[types.MustEntryName(name)] = childID
	}
	for _, childID := range confined {
		folder.LocalConfinementPoints[childID] = struct{}{}
	}
	updater, existing, err := b.storage.ForUpdateChildManifest(context.TODO(), id)
	Expect(err).Should(BeNil())
	Expect(existing).Should(BeNil())
	Expect(updater.SetFolderManifest(context.TODO(), folder)).Should(BeNil())
	return folder
}

func (b treeBuilder) file(id, parent types.EntryID, version types.VersionInt, size types.SizeInt) *types.LocalFileManifest {
	file := &types.LocalFileManifest{
		Base:      newBase(id, parent, version),
		Parent:    parent,
		Updated:   time.Now(),
		NeedSync:  version == 0,
		Size:      size,
		Blocksize: 512 * 1024,
	}
	updater, existing, err := b.storage.ForUpdateChildManifest(context.TODO(), id)
	Expect(err).Should(BeNil())
	Expect(existing).Should(BeNil())
	Expect(updater.SetFileManifest(context.TODO(), file)).Should(BeNil())
	return file
}

// stallingStorage holds the update scope of every commit until the
// caller context is done.
type stallingStorage struct {
	metastore.ManifestStorage
	holding chan types.EntryID
}

func (s *stallingStorage) ForUpdateChildManifest(ctx context.Context, id types.EntryID) (metastore.ChildManifestUpdater, types.ChildManifest, error) {
	updater, existing, err := s.ManifestStorage.ForUpdateChildManifest(ctx, id)
	if err != nil || existing != nil {
		return updater, existing, err
	}
	return &stallingUpdater{ChildManifestUpdater: updater, id: id, holding: s.holding}, nil, nil
}

type stallingUpdater struct {
	metastore.ChildManifestUpdater
	id      types.EntryID
	holding chan types.EntryID
}

func (u *stallingUpdater) SetFileManifest(ctx context.Context, manifest *types.LocalFileManifest) error {
	u.holding <- u.id
	<-ctx.Done()
	return u.ChildManifestUpdater.SetFileManifest(ctx, manifest)
}

func (u *stallingUpdater) SetFolderManifest(ctx context.Context, manifest *types.LocalFolderManifest) error {
	u.holding <- u.id
	<-ctx.Done()
	return u.ChildManifestUpdater.SetFolderManifest(ctx, manifest)
}
