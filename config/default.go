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

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/chinmaym07/parsec-cloud/utils"
)

func DefaultConfig(workdir string) (Config, error) {
	cfg := Config{
		Workspace: Workspace{
			RealmID:  uuid.New().String(),
			DeviceID: "alice@dev1",
		},
		Meta: Meta{
			Type: SqliteMeta,
			Path: fmt.Sprintf("%s/parsec-workspace.db", workdir),
		},
		Remote: Remote{
			Endpoint:                  "http://127.0.0.1:6777",
			TimeoutSeconds:            defaultRemoteTimeoutSeconds,
			SecretKey:                 generateSecretKey(32),
			VerifyKeys:                map[string]string{},
			Compression:               ZlibCompression,
			BallparkClientEarlyOffset: defaultBallparkClientEarlyOffset,
			BallparkClientLateOffset:  defaultBallparkClientLateOffset,
		},
		Cache: defaultCacheConfig(),
		Debug: false,
	}

	if err := utils.Mkdir(path.Dir(cfg.Meta.Path)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaultCacheConfig() *Cache {
	return &Cache{Size: defaultCacheSize, ExpireSeconds: defaultCacheExpireSeconds}
}

func generateSecretKey(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
