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
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
	"github.com/chinmaym07/parsec-cloud/utils/codec"
)

const (
	manifestTypeFolder = "folder_manifest"
	manifestTypeFile   = "file_manifest"

	nonceSize = 24
	keySize   = 32
)

// manifestPayload is the cbor document signed by the author device.
type manifestPayload struct {
	Type      string            `cbor:"type"`
	ID        string            `cbor:"id"`
	Parent    string            `cbor:"parent"`
	Author    string            `cbor:"author"`
	Timestamp time.Time         `cbor:"timestamp"`
	Version   uint32            `cbor:"version"`
	Created   time.Time         `cbor:"created"`
	Updated   time.Time         `cbor:"updated"`
	Children  map[string]string `cbor:"children,omitempty"`
	Size      uint64            `cbor:"size,omitempty"`
	Blocksize uint64            `cbor:"blocksize,omitempty"`
}

// envelope opens vlob blobs:
// secretbox(nonce || box(signature || compress(cbor(manifestPayload)))).
type envelope struct {
	secretKey   [keySize]byte
	verifyKeys  map[string]ed25519.PublicKey
	compression string
}

func newEnvelope(cfg config.Remote) (*envelope, error) {
	e := &envelope{verifyKeys: map[string]ed25519.PublicKey{}, compression: cfg.Compression}
	if e.compression == "" {
		e.compression = config.ZlibCompression
	}

	key, err := hex.DecodeString(cfg.SecretKey)
	if err != nil || len(key) != keySize {
		return nil, fmt.Errorf("secret key must be %d hex encoded bytes", keySize)
	}
	copy(e.secretKey[:], key)

	for device, raw := range cfg.VerifyKeys {
		pub, err := hex.DecodeString(raw)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("verify key of device %s is invalid", device)
		}
		e.verifyKeys[device] = pub
	}
	return e, nil
}

func (e *envelope) open(id types.EntryID, version types.VersionInt, author string, blob []byte) (*manifestPayload, error) {
	invalid := func(format string, args ...interface{}) error {
		return &types.InvalidManifestError{EntryID: id, Version: version, Reason: fmt.Sprintf(format, args...)}
	}

	verifyKey, ok := e.verifyKeys[author]
	if !ok {
		return nil, &types.InvalidCertificateError{Reason: fmt.Sprintf("unknown author device %s", author)}
	}

	if len(blob) < nonceSize+secretbox.Overhead {
		return nil, invalid("blob too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])
	signed, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, &e.secretKey)
	if !ok {
		return nil, invalid("decryption failed")
	}

	if len(signed) < ed25519.SignatureSize {
		return nil, invalid("signature missing")
	}
	signature, compressed := signed[:ed25519.SignatureSize], signed[ed25519.SignatureSize:]
	if !ed25519.Verify(verifyKey, compressed, signature) {
		return nil, invalid("bad signature from %s", author)
	}

	raw, err := e.decompress(compressed)
	if err != nil {
		return nil, invalid("decompress failed: %s", err)
	}

	payload := &manifestPayload{}
	if err = codec.Unmarshal(raw, payload); err != nil {
		return nil, invalid("decode failed: %s", err)
	}
	return payload, nil
}

func (e *envelope) decompress(data []byte) ([]byte, error) {
	var reader io.Reader
	switch e.compression {
	case config.LZ4Compression:
		reader = lz4.NewReader(bytes.NewReader(data))
	default:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	}
	return io.ReadAll(reader)
}

func (p *manifestPayload) toRemoteManifest() (types.RemoteChildManifest, error) {
	id, err := types.ParseEntryID(p.ID)
	if err != nil {
		return nil, fmt.Errorf("bad id: %w", err)
	}
	parent, err := types.ParseEntryID(p.Parent)
	if err != nil {
		return nil, fmt.Errorf("bad parent: %w", err)
	}
	base := types.BaseManifest{
		ID:        id,
		Parent:    parent,
		Author:    p.Author,
		Timestamp: p.Timestamp,
		Version:   types.VersionInt(p.Version),
		Created:   p.Created,
		Updated:   p.Updated,
	}

	switch p.Type {
	case manifestTypeFolder:
		children := make(map[types.EntryName]types.EntryID, len(p.Children))
		for rawName, rawID := range p.Children {
			name, err := types.NewEntryName(rawName)
			if err != nil {
				return nil, fmt.Errorf("bad child name %q: %w", rawName, err)
			}
			childID, err := types.ParseEntryID(rawID)
			if err != nil {
				return nil, fmt.Errorf("bad child id of %s: %w", rawName, err)
			}
			children[name] = childID
		}
		return &types.RemoteFolderManifest{Base: base, Children: children}, nil
	case manifestTypeFile:
		if p.Blocksize == 0 && p.Size > 0 {
			return nil, fmt.Errorf("file has no blocksize")
		}
		return &types.RemoteFileManifest{Base: base, Size: types.SizeInt(p.Size), Blocksize: types.SizeInt(p.Blocksize)}, nil
	default:
		return nil, fmt.Errorf("unexpected manifest type %s", p.Type)
	}
}
