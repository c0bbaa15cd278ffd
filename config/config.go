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

const (
	MemoryMeta   = "memory"
	SqliteMeta   = "sqlite"
	PostgresMeta = "postgres"

	ZlibCompression = "zlib"
	LZ4Compression  = "lz4"

	defaultBallparkClientEarlyOffset = 300.0
	defaultBallparkClientLateOffset  = 320.0
	defaultRemoteTimeoutSeconds      = 30
	defaultCacheSize                 = 1 << 12
	defaultCacheExpireSeconds        = 600
)

type Config struct {
	Workspace Workspace `json:"workspace"`
	Meta      Meta      `json:"meta"`
	Remote    Remote    `json:"remote"`
	Cache     *Cache    `json:"cache,omitempty"`

	Debug bool `json:"debug,omitempty"`
}

type Workspace struct {
	RealmID  string `json:"realm_id"`
	Name     string `json:"name,omitempty"`
	DeviceID string `json:"device_id"`
}

type Meta struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	DSN  string `json:"dsn,omitempty"`
}

type Remote struct {
	Endpoint       string `json:"endpoint"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`

	// SecretKey is the hex encoded realm key used to open manifest blobs.
	SecretKey string `json:"secret_key"`
	// VerifyKeys maps a device id to its hex encoded ed25519 public key.
	VerifyKeys  map[string]string `json:"verify_keys"`
	Compression string            `json:"compression,omitempty"`

	BallparkClientEarlyOffset float64 `json:"ballpark_client_early_offset,omitempty"`
	BallparkClientLateOffset  float64 `json:"ballpark_client_late_offset,omitempty"`
}

type Cache struct {
	Size          int `json:"size,omitempty"`
	ExpireSeconds int `json:"expire_seconds,omitempty"`
}
