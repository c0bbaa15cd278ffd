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
	"context"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

// ManifestService reads child manifests from the server.
//
// FetchChildManifest loads the given version of an entry, or the latest
// one when version is nil. Errors are drawn from the taxonomy in
// pkg/types: ErrOffline, ErrNotFound, ErrNotAllowed, ErrBadVersion,
// *BadTimestampError, *InvalidCertificateError, *InvalidManifestError
// and *InternalError.
type ManifestService interface {
	FetchChildManifest(ctx context.Context, id types.EntryID, version *types.VersionInt) (types.RemoteChildManifest, error)
}
