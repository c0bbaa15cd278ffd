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

package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrOffline            = errors.New("cannot reach the server")
	ErrNotFound           = errors.New("no record")
	ErrNotAllowed         = errors.New("not allowed to access this realm")
	ErrInvalidCertificate = errors.New("invalid certificate")
	ErrInvalidManifest    = errors.New("invalid manifest")
	ErrBadVersion         = errors.New("bad version")
	ErrInternal           = errors.New("internal error")
)

// BadTimestampError reports a clock skew beyond the accepted ballpark.
// The early and late offsets are independent bounds, in seconds.
type BadTimestampError struct {
	ServerTimestamp           time.Time
	ClientTimestamp           time.Time
	BallparkClientEarlyOffset float64
	BallparkClientLateOffset  float64
}

func (e *BadTimestampError) Error() string {
	return fmt.Sprintf("our clock (%s) and the server's one (%s) are too far apart",
		e.ClientTimestamp.Format(time.RFC3339Nano), e.ServerTimestamp.Format(time.RFC3339Nano))
}

type InvalidCertificateError struct {
	Reason string
}

func (e *InvalidCertificateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCertificate, e.Reason)
}

func (e *InvalidCertificateError) Is(target error) bool {
	return target == ErrInvalidCertificate
}

type InvalidManifestError struct {
	EntryID EntryID
	Version VersionInt
	Reason  string
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("%s (entry id: %s, version: %d): %s", ErrInvalidManifest, e.EntryID, e.Version, e.Reason)
}

func (e *InvalidManifestError) Is(target error) bool {
	return target == ErrInvalidManifest
}

// InternalError carries anything unexpected: local storage faults and
// broken contracts with collaborators.
type InternalError struct {
	Err error
}

func NewInternalError(err error) error {
	if err == nil {
		return nil
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return err
	}
	return &InternalError{Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInternal, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
