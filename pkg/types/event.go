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
	"time"
)

type Event struct {
	Id              string    `json:"id"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	SpecVersion     string    `json:"specversion"`
	Time            time.Time `json:"time"`
	RefID           EntryID   `json:"parsecrefid"`
	RefType         string    `json:"parsecreftype"`
	DataContentType string    `json:"datacontenttype"`
	Data            EventData `json:"data"`
}

type EventData struct {
	ID       EntryID    `json:"id"`
	Parent   EntryID    `json:"parent"`
	Kind     EntryKind  `json:"kind"`
	Version  VersionInt `json:"version"`
	Author   string     `json:"author"`
	Created  time.Time  `json:"created"`
	Updated  time.Time  `json:"updated"`
	NeedSync bool       `json:"need_sync"`
}

func NewEventData(manifest ChildManifest) EventData {
	switch m := manifest.(type) {
	case *LocalFolderManifest:
		return EventData{
			ID:       m.Base.ID,
			Parent:   m.Parent,
			Kind:     EntryKindFolder,
			Version:  m.Base.Version,
			Author:   m.Base.Author,
			Created:  m.Base.Created,
			Updated:  m.Updated,
			NeedSync: m.NeedSync,
		}
	case *LocalFileManifest:
		return EventData{
			ID:       m.Base.ID,
			Parent:   m.Parent,
			Kind:     EntryKindFile,
			Version:  m.Base.Version,
			Author:   m.Base.Author,
			Created:  m.Base.Created,
			Updated:  m.Updated,
			NeedSync: m.NeedSync,
		}
	default:
		return EventData{ID: manifest.EntryID(), Version: manifest.BaseVersion()}
	}
}
