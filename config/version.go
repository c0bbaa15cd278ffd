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
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
)

var (
	gitTag    string
	gitCommit string
)

type Version struct {
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Patch   int    `json:"patch"`
	Release string `json:"release"`
	Git     string `json:"git"`
}

func (v Version) Version() string {
	releaseInfo := ""
	if v.Release != "" {
		releaseInfo = "-" + v.Release
	}
	return fmt.Sprintf("v%d.%d.%d%s", v.Major, v.Minor, v.Patch, releaseInfo)
}

// VersionInfo parses the tag injected with -ldflags, falling back to
// the module version recorded by the go tool.
func VersionInfo() Version {
	tag, commit := gitTag, gitCommit
	if tag == "" || commit == "" {
		buildTag, buildCommit := buildInfo()
		if tag == "" {
			tag = buildTag
		}
		if commit == "" {
			commit = buildCommit
		}
	}
	return parseVersion(strings.TrimPrefix(tag, "v"), commit)
}

func parseVersion(tag, commit string) Version {
	versionInfo := Version{Git: commit}
	infoParts := strings.SplitN(tag, "-", 2)
	versionParts := strings.Split(infoParts[0], ".")

	versionInfo.Major, _ = strconv.Atoi(versionParts[0])
	if len(versionParts) > 1 {
		versionInfo.Minor, _ = strconv.Atoi(versionParts[1])
	}
	if len(versionParts) > 2 {
		versionInfo.Patch, _ = strconv.Atoi(versionParts[2])
	}
	if len(infoParts) > 1 {
		versionInfo.Release = infoParts[1]
	}
	return versionInfo
}

func buildInfo() (tag, commit string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	if info.Main.Version != "(devel)" {
		tag = info.Main.Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			commit = setting.Value
		}
	}
	return tag, commit
}
