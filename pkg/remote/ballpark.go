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
	"time"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

// checkBallpark accepts the client clock when
// -earlyOffset < client - server < lateOffset, bounds in seconds.
func checkBallpark(serverTS, clientTS time.Time, earlyOffset, lateOffset float64) error {
	diff := clientTS.Sub(serverTS).Seconds()
	if diff <= -earlyOffset || diff >= lateOffset {
		return &types.BadTimestampError{
			ServerTimestamp:           serverTS,
			ClientTimestamp:           clientTS,
			BallparkClientEarlyOffset: earlyOffset,
			BallparkClientLateOffset:  lateOffset,
		}
	}
	return nil
}
