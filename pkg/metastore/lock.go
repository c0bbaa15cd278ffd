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
	"sync"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

// entryLocks serializes writers per entry. Idle locks are dropped from
// the table once nobody holds or waits on them.
type entryLocks struct {
	locks map[types.EntryID]*entryLock
	mux   sync.Mutex
}

type entryLock struct {
	ch   chan struct{}
	refs int
}

func newEntryLocks() *entryLocks {
	return &entryLocks{locks: make(map[types.EntryID]*entryLock)}
}

func (l *entryLocks) acquire(ctx context.Context, id types.EntryID) (func(), error) {
	l.mux.Lock()
	el, ok := l.locks[id]
	if !ok {
		el = &entryLock{ch: make(chan struct{}, 1)}
		l.locks[id] = el
	}
	el.refs++
	l.mux.Unlock()

	select {
	case el.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(id, el)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-el.ch
			l.unref(id, el)
		})
	}, nil
}

func (l *entryLocks) unref(id types.EntryID, el *entryLock) {
	l.mux.Lock()
	defer l.mux.Unlock()
	el.refs--
	if el.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *entryLocks) size() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.locks)
}
