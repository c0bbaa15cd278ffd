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

package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

const testDevice = "alice@dev1"

type fakeVlob struct {
	author    string
	timestamp time.Time
	blob      []byte
}

// fakeVlobServer serves GET /vlob/:id the way the realm backend does.
type fakeVlobServer struct {
	server   *httptest.Server
	envelope *envelope
	signKey  ed25519.PrivateKey
	cfg      config.Remote

	mux    sync.Mutex
	vlobs  map[string][]fakeVlob
	status map[string]int
	body   map[string]interface{}
	reads  int
}

func newFakeVlobServer(compression string) *fakeVlobServer {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	Expect(err).Should(BeNil())
	secret := make([]byte, keySize)
	_, err = rand.Read(secret)
	Expect(err).Should(BeNil())

	s := &fakeVlobServer{
		signKey: priv,
		vlobs:   map[string][]fakeVlob{},
		status:  map[string]int{},
		body:    map[string]interface{}{},
	}

	engine := gin.New()
	engine.GET("/vlob/:id", s.readVlob)
	s.server = httptest.NewServer(engine)

	s.cfg = config.Remote{
		Endpoint:                  s.server.URL,
		TimeoutSeconds:            5,
		SecretKey:                 hex.EncodeToString(secret),
		VerifyKeys:                map[string]string{testDevice: hex.EncodeToString(pub)},
		Compression:               compression,
		BallparkClientEarlyOffset: 300,
		BallparkClientLateOffset:  320,
	}
	s.envelope, err = newEnvelope(s.cfg)
	Expect(err).Should(BeNil())
	return s
}

func (s *fakeVlobServer) close() {
	s.server.Close()
}

func (s *fakeVlobServer) readVlob(gCtx *gin.Context) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.reads++

	id := gCtx.Param("id")
	if code, ok := s.status[id]; ok {
		if body, ok := s.body[id]; ok {
			gCtx.JSON(code, body)
			return
		}
		gCtx.Status(code)
		return
	}

	versions := s.vlobs[id]
	if len(versions) == 0 {
		gCtx.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}

	version := len(versions)
	if raw := gCtx.Query("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			gCtx.JSON(http.StatusBadRequest, gin.H{"status": "bad_message"})
			return
		}
		if v > len(versions) {
			gCtx.JSON(http.StatusConflict, gin.H{"status": "bad_version"})
			return
		}
		version = v
	}

	vlob := versions[version-1]
	gCtx.JSON(http.StatusOK, vlobReadResponse{
		Author:    vlob.author,
		Timestamp: vlob.timestamp,
		Version:   uint32(version),
		Blob:      vlob.blob,
	})
}

// put appends a new version of the manifest, its base version must be
// the next one.
func (s *fakeVlobServer) put(manifest types.RemoteChildManifest) {
	base := manifest.GetBase()
	blob, err := s.envelope.seal(s.signKey, newManifestPayload(manifest))
	Expect(err).Should(BeNil())
	s.putRaw(base.ID, base.Author, base.Timestamp, blob)
}

func (s *fakeVlobServer) putRaw(id types.EntryID, author string, timestamp time.Time, blob []byte) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.vlobs[id.String()] = append(s.vlobs[id.String()], fakeVlob{author: author, timestamp: timestamp, blob: blob})
}

func (s *fakeVlobServer) fail(id types.EntryID, code int, body interface{}) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.status[id.String()] = code
	if body != nil {
		s.body[id.String()] = body
	}
}

func newRemoteFolder(id, parent types.EntryID, version types.VersionInt, children map[types.EntryName]types.EntryID) *types.RemoteFolderManifest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &types.RemoteFolderManifest{
		Base: types.BaseManifest{
			ID:        id,
			Parent:    parent,
			Author:    testDevice,
			Timestamp: now,
			Version:   version,
			Created:   now,
			Updated:   now,
		},
		Children: children,
	}
}

func newRemoteFile(id, parent types.EntryID, version types.VersionInt, size types.SizeInt) *types.RemoteFileManifest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &types.RemoteFileManifest{
		Base: types.BaseManifest{
			ID:        id,
			Parent:    parent,
			Author:    testDevice,
			Timestamp: now,
			Version:   version,
			Created:   now,
			Updated:   now,
		},
		Size:      size,
		Blocksize: 512 * 1024,
	}
}
