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
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var (
	deviceIDPattern = "^[a-zA-Z0-9_.-]{1,32}@[a-zA-Z0-9_.-]{1,32}$"
	deviceIDRegexp  = regexp.MustCompile(deviceIDPattern)
)

type verifier func(config *Config) error

var verifiers = []verifier{
	setDefaultValue,
	checkWorkspaceConfig,
	checkMetaConfig,
	checkRemoteConfig,
	checkCacheConfig,
}

func setDefaultValue(config *Config) error {
	if config.Cache == nil {
		config.Cache = defaultCacheConfig()
	}
	if config.Remote.TimeoutSeconds == 0 {
		config.Remote.TimeoutSeconds = defaultRemoteTimeoutSeconds
	}
	if config.Remote.Compression == "" {
		config.Remote.Compression = ZlibCompression
	}
	if config.Remote.BallparkClientEarlyOffset == 0 {
		config.Remote.BallparkClientEarlyOffset = defaultBallparkClientEarlyOffset
	}
	if config.Remote.BallparkClientLateOffset == 0 {
		config.Remote.BallparkClientLateOffset = defaultBallparkClientLateOffset
	}
	return nil
}

func checkWorkspaceConfig(config *Config) error {
	w := config.Workspace
	if _, err := uuid.Parse(w.RealmID); err != nil {
		return fmt.Errorf("workspace.realm_id is invalid: %s", err)
	}
	if !deviceIDRegexp.MatchString(w.DeviceID) {
		return fmt.Errorf("workspace.device_id must match %s", deviceIDPattern)
	}
	return nil
}

func checkMetaConfig(config *Config) error {
	m := config.Meta
	switch m.Type {
	case MemoryMeta:
		return nil
	case SqliteMeta:
		if m.Path == "" {
			return fmt.Errorf("path for sqlite db file is empty")
		}
		return nil
	case PostgresMeta:
		if m.DSN == "" {
			return fmt.Errorf("db dsn is empty")
		}
		return nil
	default:
		return fmt.Errorf("unknown meta type %s", m.Type)
	}
}

func checkRemoteConfig(config *Config) error {
	r := config.Remote
	if r.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is empty")
	}
	sk, err := hex.DecodeString(r.SecretKey)
	if err != nil {
		return fmt.Errorf("remote.secret_key is not hex encoded: %s", err)
	}
	if len(sk) != 32 {
		return fmt.Errorf("the length of the remote.secret_key needs to be 32")
	}
	for device, key := range r.VerifyKeys {
		vk, err := hex.DecodeString(key)
		if err != nil || len(vk) != 32 {
			return fmt.Errorf("remote.verify_keys[%s] is not a valid ed25519 public key", device)
		}
	}
	switch r.Compression {
	case ZlibCompression, LZ4Compression:
	default:
		return fmt.Errorf("unsupported compression %s", r.Compression)
	}
	if r.BallparkClientEarlyOffset < 0 || r.BallparkClientLateOffset < 0 {
		return fmt.Errorf("ballpark offsets must not be negative")
	}
	return nil
}

func checkCacheConfig(config *Config) error {
	if config.Cache.Size < 0 {
		config.Cache.Size = 0
	}
	if config.Cache.ExpireSeconds <= 0 {
		config.Cache.ExpireSeconds = defaultCacheExpireSeconds
	}
	return nil
}

func Verify(cfg *Config) error {
	for _, f := range verifiers {
		if err := f(cfg); err != nil {
			return err
		}
	}
	return nil
}
