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
	"time"

	"github.com/hyponet/eventbus"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/chinmaym07/parsec-cloud/pkg/events"
	"github.com/chinmaym07/parsec-cloud/pkg/metastore"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

var _ = Describe("TestGetChildManifest", func() {
	var (
		storage metastore.ManifestStorage
		remote  *fakeRemote
		ops     Ops
	)

	BeforeEach(func() {
		storage = newMemoryStorage()
		remote = newFakeRemote()
		ops = New(storage, remote)
	})
	AfterEach(func() {
		Expect(storage.Close()).Should(BeNil())
	})

	Context("entry is stored locally", func() {
		It("should not touch the server", func() {
			id := types.NewEntryID()
			treeBuilder{storage}.folder(id, ops.RealmID(), 2, nil)

			manifest, err := ops.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())
			Expect(manifest.BaseVersion()).Should(Equal(types.VersionInt(2)))
			Expect(remote.fetchCount(id)).Should(Equal(0))
		})
	})

	Context("entry is only known by the server", func() {
		It("should be fetched and stored as a synced folder", func() {
			id := types.NewEntryID()
			remote.put(&types.RemoteFolderManifest{
				Base:     newBase(id, ops.RealmID(), 3),
				Children: map[types.EntryName]types.EntryID{types.MustEntryName("a.txt"): types.NewEntryID()},
			})

			_, err := ops.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())

			stored, err := storage.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())
			folder, ok := stored.(*types.LocalFolderManifest)
			Expect(ok).Should(BeTrue())
			Expect(folder.Base.Version).Should(Equal(types.VersionInt(3)))
			Expect(folder.NeedSync).Should(BeFalse())
			Expect(folder.LocalConfinementPoints).Should(BeEmpty())
			Expect(folder.Children).Should(HaveKey(types.MustEntryName("a.txt")))
		})
		It("should be fetched only once", func() {
			id := types.NewEntryID()
			remote.put(&types.RemoteFileManifest{Base: newBase(id, ops.RealmID(), 1), Size: 10, Blocksize: 512})

			first, err := ops.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())
			second, err := ops.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())

			Expect(remote.fetchCount(id)).Should(Equal(1))
			Expect(second.EntryID()).Should(Equal(first.EntryID()))
			Expect(second.(*types.LocalFileManifest).Size).Should(Equal(types.SizeInt(10)))
		})
		It("should publish a fetched event", func() {
			id := types.NewEntryID()
			remote.put(&types.RemoteFileManifest{Base: newBase(id, ops.RealmID(), 4), Size: 1, Blocksize: 512})

			received := make(chan *types.Event, 8)
			lid := eventbus.Subscribe(events.TopicAllActions, func(evt *types.Event) {
				received <- evt
			})
			defer eventbus.Unsubscribe(lid)

			_, err := ops.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())

			var evt *types.Event
			Eventually(func() types.EntryID {
				select {
				case evt = <-received:
					return evt.RefID
				default:
					return types.EntryID{}
				}
			}, time.Second*5).Should(Equal(id))
			Expect(evt.Type).Should(Equal(events.ActionTypeFetched))
			Expect(evt.Data.Kind).Should(Equal(types.EntryKindFile))
			Expect(evt.Data.Version).Should(Equal(types.VersionInt(4)))
		})
	})

	Context("two resolutions race on the same missing entry", func() {
		It("should converge on one stored manifest", func() {
			id := types.NewEntryID()
			remote.put(&types.RemoteFolderManifest{Base: newBase(id, ops.RealmID(), 3), Children: map[types.EntryName]types.EntryID{}})
			remote.gate = make(chan struct{})

			type result struct {
				manifest types.ChildManifest
				err      error
			}
			results := make(chan result, 2)
			for i := 0; i < 2; i++ {
				go func() {
					manifest, err := ops.GetChildManifest(context.TODO(), id)
					results <- result{manifest: manifest, err: err}
				}()
			}

			Eventually(func() int { return remote.fetchCount(id) }, time.Second*5).Should(Equal(2))
			close(remote.gate)

			for i := 0; i < 2; i++ {
				r := <-results
				Expect(r.err).Should(BeNil())
				Expect(r.manifest.EntryID()).Should(Equal(id))
				Expect(r.manifest.BaseVersion()).Should(Equal(types.VersionInt(3)))
			}

			stored, err := storage.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())
			Expect(stored.BaseVersion()).Should(Equal(types.VersionInt(3)))
		})
	})

	Context("resolution is cancelled while storing", func() {
		It("should leave the entry resolvable", func() {
			id := types.NewEntryID()
			remote.put(&types.RemoteFolderManifest{Base: newBase(id, ops.RealmID(), 2), Children: map[types.EntryName]types.EntryID{}})

			holding := make(chan types.EntryID, 1)
			stalled := New(&stallingStorage{ManifestStorage: storage, holding: holding}, remote)

			ctx, cancel := context.WithCancel(context.TODO())
			done := make(chan error, 1)
			go func() {
				_, err := stalled.GetChildManifest(ctx, id)
				done <- err
			}()

			Eventually(holding, time.Second*5).Should(Receive(Equal(id)))
			cancel()
			var err error
			Eventually(done, time.Second*5).Should(Receive(&err))
			Expect(types.IsInternal(err)).Should(BeTrue())

			_, err = storage.GetChildManifest(context.TODO(), id)
			Expect(err).Should(Equal(types.ErrNotFound))

			manifest, err := ops.GetChildManifest(context.TODO(), id)
			Expect(err).Should(BeNil())
			Expect(manifest.BaseVersion()).Should(Equal(types.VersionInt(2)))
			Expect(remote.fetchCount(id)).Should(Equal(2))
		})
	})

	Context("server fails", func() {
		It("should pass the error through", func() {
			badTS := &types.BadTimestampError{
				ServerTimestamp:           time.Now(),
				ClientTimestamp:           time.Now().Add(time.Hour),
				BallparkClientEarlyOffset: 300,
				BallparkClientLateOffset:  320,
			}
			for _, expect := range []error{
				types.ErrOffline,
				types.ErrNotFound,
				types.ErrNotAllowed,
				&types.InvalidCertificateError{Reason: "unknown device"},
				&types.InvalidManifestError{Reason: "bad signature"},
				badTS,
			} {
				id := types.NewEntryID()
				remote.fail(id, expect)
				_, err := ops.GetChildManifest(context.TODO(), id)
				Expect(err).Should(Equal(expect))

				_, err = storage.GetChildManifest(context.TODO(), id)
				Expect(err).Should(Equal(types.ErrNotFound))
			}
		})
		It("should turn bad version into internal", func() {
			id := types.NewEntryID()
			remote.fail(id, types.ErrBadVersion)
			_, err := ops.GetChildManifest(context.TODO(), id)
			Expect(types.IsInternal(err)).Should(BeTrue())
		})
	})

	Context("local storage fails", func() {
		It("should be internal", func() {
			id := types.NewEntryID()
			ops = New(&faultyStorage{ManifestStorage: storage, brokenID: id}, remote)
			_, err := ops.GetChildManifest(context.TODO(), id)
			Expect(types.IsInternal(err)).Should(BeTrue())
			Expect(remote.fetchCount(id)).Should(Equal(0))
		})
	})
})

var _ = Describe("TestResolvePath", func() {
	var (
		storage metastore.ManifestStorage
		remote  *fakeRemote
		ops     Ops
		builder treeBuilder
	)

	BeforeEach(func() {
		storage = newMemoryStorage()
		remote = newFakeRemote()
		ops = New(storage, remote)
		builder = treeBuilder{storage}
	})
	AfterEach(func() {
		Expect(storage.Close()).Should(BeNil())
	})

	Context("resolve the root", func() {
		It("should be the realm", func() {
			resolution, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/"))
			Expect(err).Should(BeNil())
			Expect(resolution.EntryID).Should(Equal(ops.RealmID()))
			Expect(resolution.ConfinementPoint).Should(BeNil())
		})
	})

	Context("resolve a nested entry", func() {
		var aID, bID types.EntryID

		BeforeEach(func() {
			aID, bID = types.NewEntryID(), types.NewEntryID()
			builder.rootChild("A", aID, false)
			builder.folder(aID, ops.RealmID(), 1, map[string]types.EntryID{"B": bID})
			builder.file(bID, aID, 1, 42)
		})

		It("should not be confined", func() {
			resolution, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B"))
			Expect(err).Should(BeNil())
			Expect(resolution.EntryID).Should(Equal(bID))
			Expect(resolution.ConfinementPoint).Should(BeNil())
		})
		It("should be not found with a missing name", func() {
			_, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/C"))
			Expect(err).Should(Equal(types.ErrNotFound))
			_, err = ops.ResolvePath(context.TODO(), types.MustParseFsPath("/Z"))
			Expect(err).Should(Equal(types.ErrNotFound))
		})
		It("should stop on a file", func() {
			_, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B/C"))
			Expect(err).Should(Equal(types.ErrNotFound))
		})
	})

	Context("resolve under confinement points", func() {
		It("should keep the top-most one", func() {
			aID, bID := types.NewEntryID(), types.NewEntryID()
			builder.rootChild("A", aID, true)
			builder.folder(aID, ops.RealmID(), 1, map[string]types.EntryID{"B": bID}, bID)
			builder.file(bID, aID, 1, 0)

			resolution, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B"))
			Expect(err).Should(BeNil())
			Expect(resolution.EntryID).Should(Equal(bID))
			Expect(*resolution.ConfinementPoint).Should(Equal(ops.RealmID()))
		})
		It("should use the folder when the root does not confine", func() {
			aID, bID := types.NewEntryID(), types.NewEntryID()
			builder.rootChild("A", aID, false)
			builder.folder(aID, ops.RealmID(), 1, map[string]types.EntryID{"B": bID}, bID)
			builder.file(bID, aID, 1, 0)

			resolution, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B"))
			Expect(err).Should(BeNil())
			Expect(*resolution.ConfinementPoint).Should(Equal(aID))
		})
	})

	Context("resolve through an entry only known by the server", func() {
		It("should fetch the missing folder", func() {
			aID, bID := types.NewEntryID(), types.NewEntryID()
			builder.rootChild("A", aID, false)
			remote.put(&types.RemoteFolderManifest{
				Base:     newBase(aID, ops.RealmID(), 2),
				Children: map[types.EntryName]types.EntryID{types.MustEntryName("B"): bID},
			})

			resolution, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B"))
			Expect(err).Should(BeNil())
			Expect(resolution.EntryID).Should(Equal(bID))
			Expect(remote.fetchCount(aID)).Should(Equal(1))
		})
		It("should report the server failure", func() {
			aID := types.NewEntryID()
			builder.rootChild("A", aID, false)
			remote.fail(aID, types.ErrOffline)

			_, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B"))
			Expect(err).Should(Equal(types.ErrOffline))
		})
	})

	Context("local storage fails on an intermediate folder", func() {
		It("should annotate the internal error", func() {
			aID := types.NewEntryID()
			builder.rootChild("A", aID, false)
			ops = New(&faultyStorage{ManifestStorage: storage, brokenID: aID}, remote)

			_, err := ops.ResolvePath(context.TODO(), types.MustParseFsPath("/A/B"))
			Expect(types.IsInternal(err)).Should(BeTrue())
			Expect(err.Error()).Should(ContainSubstring("cannot get manifest (entry id: " + aID.String() + ")"))
		})
	})
})

var _ = Describe("TestEntryInfo", func() {
	var (
		storage metastore.ManifestStorage
		remote  *fakeRemote
		ops     Ops
		builder treeBuilder
	)

	BeforeEach(func() {
		storage = newMemoryStorage()
		remote = newFakeRemote()
		ops = New(storage, remote)
		builder = treeBuilder{storage}
	})
	AfterEach(func() {
		Expect(storage.Close()).Should(BeNil())
	})

	Context("info of the root", func() {
		It("should list sorted children", func() {
			for _, name := range []string{"zeta", "Alpha", "beta", "_x", "a"} {
				builder.rootChild(name, types.NewEntryID(), false)
			}

			first, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/"))
			Expect(err).Should(BeNil())
			second, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/"))
			Expect(err).Should(BeNil())

			Expect(first.Children).Should(Equal([]types.EntryName{"Alpha", "_x", "a", "beta", "zeta"}))
			Expect(second.Children).Should(Equal(first.Children))
			Expect(first.IsFolder()).Should(BeTrue())
			Expect(first.ID).Should(Equal(ops.RealmID()))
			Expect(first.ConfinementPoint).Should(BeNil())
			Expect(first.IsPlaceholder).Should(BeTrue())
		})
	})

	Context("info of a file in a confined folder", func() {
		It("should carry the root as confinement point", func() {
			fID, xID := types.NewEntryID(), types.NewEntryID()
			builder.rootChild("docs", fID, true)
			builder.folder(fID, ops.RealmID(), 1, map[string]types.EntryID{"a.txt": xID})
			builder.file(xID, fID, 2, 1234)

			info, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/docs/a.txt"))
			Expect(err).Should(BeNil())
			Expect(info.IsFile()).Should(BeTrue())
			Expect(info.ID).Should(Equal(xID))
			Expect(*info.ConfinementPoint).Should(Equal(ops.RealmID()))
			Expect(info.Size).Should(Equal(types.SizeInt(1234)))
			Expect(info.BaseVersion).Should(Equal(types.VersionInt(2)))
			Expect(info.Children).Should(BeNil())
		})
	})

	Context("info of a folder", func() {
		It("should list every child", func() {
			fID := types.NewEntryID()
			builder.rootChild("docs", fID, false)
			builder.folder(fID, ops.RealmID(), 1, map[string]types.EntryID{
				"b": types.NewEntryID(), "a": types.NewEntryID(), "c": types.NewEntryID()})

			info, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/docs"))
			Expect(err).Should(BeNil())
			Expect(info.IsFolder()).Should(BeTrue())
			Expect(info.ConfinementPoint).Should(BeNil())
			Expect(info.Children).Should(ConsistOf(types.EntryName("a"), types.EntryName("b"), types.EntryName("c")))
		})
	})

	Context("info of a placeholder", func() {
		It("should be detected by the base version", func() {
			pID, sID := types.NewEntryID(), types.NewEntryID()
			builder.rootChild("new.txt", pID, false)
			builder.rootChild("old.txt", sID, false)
			builder.file(pID, ops.RealmID(), 0, 0)
			builder.file(sID, ops.RealmID(), 1, 0)

			info, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/new.txt"))
			Expect(err).Should(BeNil())
			Expect(info.IsPlaceholder).Should(BeTrue())
			Expect(info.NeedSync).Should(BeTrue())

			info, err = ops.EntryInfo(context.TODO(), types.MustParseFsPath("/old.txt"))
			Expect(err).Should(BeNil())
			Expect(info.IsPlaceholder).Should(BeFalse())
		})
	})

	Context("info of a missing entry", func() {
		It("should be not found", func() {
			info, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/nope"))
			Expect(err).Should(Equal(types.ErrNotFound))
			Expect(info).Should(BeNil())
		})
	})

	Context("local storage fails while resolving", func() {
		It("should annotate the internal error", func() {
			fID := types.NewEntryID()
			builder.rootChild("docs", fID, false)
			ops = New(&faultyStorage{ManifestStorage: storage, brokenID: fID}, remote)

			_, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/docs/a.txt"))
			Expect(types.IsInternal(err)).Should(BeTrue())
			Expect(err.Error()).Should(HavePrefix("cannot resolve path"))
			Expect(errors.Is(err, types.ErrInternal)).Should(BeTrue())
		})
		It("should annotate the internal error of the target", func() {
			fID := types.NewEntryID()
			builder.rootChild("docs", fID, false)
			ops = New(&faultyStorage{ManifestStorage: storage, brokenID: fID}, remote)

			_, err := ops.EntryInfo(context.TODO(), types.MustParseFsPath("/docs"))
			Expect(types.IsInternal(err)).Should(BeTrue())
			Expect(err.Error()).Should(ContainSubstring("cannot get manifest (entry id: " + fID.String() + ")"))
		})
	})
})
