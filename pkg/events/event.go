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

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

func BuildManifestEvent(actionType string, source string, manifest types.ChildManifest) *types.Event {
	return &types.Event{
		Id:              uuid.New().String(),
		Type:            actionType,
		Source:          source,
		SpecVersion:     "1.0",
		Time:            time.Now(),
		RefType:         "manifest",
		RefID:           manifest.EntryID(),
		DataContentType: "application/event-data",
		Data:            types.NewEventData(manifest),
	}
}
