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

package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/spf13/cobra"

	configapp "github.com/chinmaym07/parsec-cloud/cmd/apps/config"
	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/pkg/metastore"
	"github.com/chinmaym07/parsec-cloud/pkg/remote"
	"github.com/chinmaym07/parsec-cloud/pkg/types"
	"github.com/chinmaym07/parsec-cloud/pkg/workspace"
	"github.com/chinmaym07/parsec-cloud/utils"
	"github.com/chinmaym07/parsec-cloud/utils/logger"
)

var requestTimeout time.Duration

func init() {
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(resolveCmd)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configapp.RunCmd)
}

var RootCmd = &cobra.Command{
	Use:   "parsec",
	Short: "Parsec workspace client",
	Long:  `Offline-first client of an end-to-end encrypted workspace.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	for _, c := range []*cobra.Command{infoCmd, resolveCmd} {
		c.Flags().StringVar(&config.FilePath, "config", path.Join(config.LocalUserPath(), config.DefaultConfigBase), "parsec config file")
		c.Flags().DurationVar(&requestTimeout, "timeout", time.Minute, "request timeout")
	}
}

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show entry information of a workspace path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsPath, err := types.ParseFsPath(args[0])
		if err != nil {
			return err
		}
		return withWorkspace("parsec.info", func(ctx context.Context, ops workspace.Ops) error {
			info, err := ops.EntryInfo(ctx, fsPath)
			if err != nil {
				return err
			}
			return printJson(cmd, info)
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a workspace path to its entry id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsPath, err := types.ParseFsPath(args[0])
		if err != nil {
			return err
		}
		return withWorkspace("parsec.resolve", func(ctx context.Context, ops workspace.Ops) error {
			resolution, err := ops.ResolvePath(ctx, fsPath)
			if err != nil {
				return err
			}
			return printJson(cmd, map[string]interface{}{
				"entry_id":          resolution.EntryID,
				"confinement_point": resolution.ConfinementPoint,
			})
		})
	},
}

func withWorkspace(command string, fn func(ctx context.Context, ops workspace.Ops) error) error {
	cfg, err := config.NewConfigLoader().GetConfig()
	if err != nil {
		return err
	}
	if cfg.Debug {
		logger.SetDebug(cfg.Debug)
	}
	defer logger.CostLog(logger.NewLogger("parsec"), command+" finished")()

	storage, err := metastore.NewManifestStorage(cfg.Meta, cfg.Workspace, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open local storage failed: %w", err)
	}
	defer storage.Close()

	remoteService, err := remote.NewManifestService(cfg.Remote)
	if err != nil {
		return fmt.Errorf("init remote service failed: %w", err)
	}

	ctx, done := utils.CommandContext(command, requestTimeout)
	defer done()
	return fn(ctx, workspace.New(storage, remoteService))
}

func printJson(cmd *cobra.Command, obj interface{}) error {
	raw, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "View version information",
	Run: func(cmd *cobra.Command, args []string) {
		vInfo := config.VersionInfo()
		fmt.Printf("Version: %s\n", vInfo.Version())
		fmt.Printf("GitCommit: %s\n", vInfo.Git)
	},
}
