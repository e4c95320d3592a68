// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	internalcmd "github.com/shawncrivello/label-me-labeled/internal/cmd"
	"github.com/shawncrivello/label-me-labeled/internal/config"
	"github.com/shawncrivello/label-me-labeled/internal/info"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

var (
	// Version is injected at build time via the Makefile.
	Version = info.Version
	// BuildDate is injected at build time via the Makefile.
	BuildDate = info.BuildDate

	appName      = info.AppName
	versionShort = "Display the " + appName + " version"
)

const (
	appShort = "drive-labels manages Google Drive labels and the values applied on files"
	appLong  = `drive-labels manages Google Drive labels and the values applied on files.

	Credentials are read from the service account file set in the configuration or
	in GOOGLE_APPLICATION_CREDENTIALS. The configuration file is read from the
	drive-labels folder of the user configuration directory unless --config is set.`

	configFlagName        = "config"
	configShortFlagName   = "c"
	configFlagUsage       = "path of the configuration file"
	logLevelFlagName      = "log-level"
	logLevelShortFlagName = "v"

	versionCmdName = "version"
)

var (
	allLoggerLevels = []string{
		logger.TRACE.String(),
		logger.DEBUG.String(),
		logger.INFO.String(),
		logger.WARN.String(),
		logger.ERROR.String(),
	}
	logLevelDefaultValue = logger.INFO.String()
	logLevelFlagUsage    = "set the logging level (possible values: " + strings.Join(allLoggerLevels, ", ") + ")"
)

// rootFlags holds the persistent flags shared across the command tree.
type rootFlags struct {
	configPath string
	logLevel   string
}

// addFlags registers the persistent CLI flags on cmd.
func (f *rootFlags) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.configPath, configFlagName, configShortFlagName, "", configFlagUsage)
	flags.StringVarP(&f.logLevel, logLevelFlagName, logLevelShortFlagName, logLevelDefaultValue, heredoc.Doc(logLevelFlagUsage))
}

func main() {
	cmd := rootCmd()
	log := logger.NewLogger(cmd.OutOrStderr())
	ctx := logger.WithContext(context.Background(), log)

	exitCode := 0
	if err := cmd.ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	os.Exit(exitCode)
}

// rootCmd constructs the root Cobra command with shared configuration.
func rootCmd() *cobra.Command {
	flag := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),
		Long:  heredoc.Doc(appLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == versionCmdName {
				logger.FromContext(cmd.Context()).SetLevel(logger.LevelFromString(flag.logLevel))
				return nil
			}
			return setup(cmd, flag)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(err)
		_ = c.Usage()
		return err
	})

	flag.addFlags(cmd)
	cmd.AddCommand(
		internalcmd.LabelsCmd(),
		internalcmd.FilesCmd(),
		internalcmd.BulkApplyCmd(),
		internalcmd.AuditCmd(),
		versionCmd(),
	)

	return cmd
}

// setup loads the configuration and prepares the logger of the command context.
// An explicit --log-level wins over the configured level.
func setup(cmd *cobra.Command, flag *rootFlags) error {
	cfg, err := config.Load(flag.configPath)
	if err != nil {
		cmd.PrintErrln(err)
		return err
	}

	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	if cfg.LogFormat() == logger.TextFormat {
		log = logger.NewLoggerWithFormat(cmd.ErrOrStderr(), logger.TextFormat)
	}

	level := cfg.LogLevel()
	if cmd.Flags().Changed(logLevelFlagName) {
		level = logger.LevelFromString(flag.logLevel)
	}
	log.SetLevel(level)

	cmd.SetContext(config.WithContext(logger.WithContext(ctx, log), cfg))
	return nil
}

// versionCmd constructs the Cobra command that prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: heredoc.Doc(versionShort),

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}

			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(Version, BuildDate, runtime.Version()))
		},
	}
}

// versionString formats the version metadata for display.
func versionString(version, buildDate, runtimeVersion string) string {
	outputString := version
	if buildDate != "" {
		outputString += " (" + buildDate + ")"
	}

	return outputString + ", Go Version: " + runtimeVersion
}
