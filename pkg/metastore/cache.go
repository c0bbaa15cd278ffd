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
	"errors"
	"time"

	"github.com/bluele/gcache"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

const (
	defaultLRUCacheExpire = time.Minute * 10
	defaultLRUCacheSize   = 1 << 12
)

// cache keeps immutable snapshots, callers always get a copy back.
type cache struct {
	manifestCache gcache.Cache
}

func (c *cache) getManifest(id types.EntryID) (types.ChildManifest, error) {
	if c == nil {
		return nil, types.ErrNotFound
	}
	cached, err := c.manifestCache.Get(id)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return cloneChildManifest(cached.(types.ChildManifest)), nil
}

func (c *cache) setManifest(manifest types.ChildManifest) {
	if c == nil {
		return
	}
	_ = c.manifestCache.Set(manifest.EntryID(), cloneChildManifest(manifest))
}

func (c *cache) invalidManifest(idList ...types.EntryID) {
	if c == nil {
		return
	}
	for _, id := range idList {
		c.manifestCache.Remove(id)
	}
}

func newCache(cfg *config.Cache) *cache {
	size, expire := defaultLRUCacheSize, defaultLRUCacheExpire
	if cfg != nil {
		if cfg.Size == 0 {
			return nil
		}
		if cfg.Size > 0 {
			size = cfg.Size
		}
		if cfg.ExpireSeconds > 0 {
			expire = time.Duration(cfg.ExpireSeconds) * time.Second
		}
	}
	return &cache{
		manifestCache: gcache.New(size).LRU().Expiration(expire).Build(),
	}
}

func cloneChildManifest(manifest types.ChildManifest) types.ChildManifest {
	switch m := manifest.(type) {
	case *types.LocalFolderManifest:
		return m.Clone()
	case *types.LocalFileManifest:
		return m.Clone()
	default:
		return manifest
	}
}
