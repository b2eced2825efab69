package cmd

import (
	"fmt"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/testcentral/outpost/internal/config"
)

func registerServerFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.IntVar(&cfg.Server.HTTPPort, "server-http-port", cfg.Server.HTTPPort, "Port the outpost listens on")
	fs.StringVar(&cfg.Server.ServerMode, "server-mode", cfg.Server.ServerMode, "Server mode: dev or prod")
	fs.BoolVar(&cfg.Server.TLSEnabled, "server-tls-enabled", cfg.Server.TLSEnabled, "Serve HTTPS with a self-signed certificate")
}

func registerOutpostFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.StringVar(&cfg.Outpost.Name, "outpost-name", cfg.Outpost.Name, "Name announced to Test Central (defaults to the host name)")
	fs.StringVar(&cfg.Outpost.Silo, "outpost-silo", cfg.Outpost.Silo, "Silo served by this outpost")
	fs.StringVar(&cfg.Outpost.WorkDir, "outpost-work-dir", cfg.Outpost.WorkDir, "Directory holding the silos")
	fs.StringVar(&cfg.Outpost.ExternalHost, "outpost-external-host", cfg.Outpost.ExternalHost, "Base URL Test Central uses to reach the outpost (defaults to the discovered address)")
	fs.BoolVar(&cfg.Outpost.KeepFailedResult, "outpost-keep-failed-result", cfg.Outpost.KeepFailedResult, "Keep reporting the result file of a failed run")
}

func registerCentralFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.StringVar(&cfg.Central.URL, "central-url", cfg.Central.URL, "Test Central base URL")
	fs.StringVar(&cfg.Central.SSOPath, "central-sso-path", cfg.Central.SSOPath, "Test Central login path")
	fs.StringVar(&cfg.Central.SessionFile, "central-session-file", cfg.Central.SessionFile, "File holding the Test Central session")
	fs.StringVar(&cfg.Central.Email, "central-email", cfg.Central.Email, "Test Central account email")
	fs.DurationVar(&cfg.Central.Timeout, "central-timeout", cfg.Central.Timeout, "Timeout of each Test Central request")
}

func registerRegistrationFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.StringVar(&cfg.Central.RegisterPath, "central-register-path", cfg.Central.RegisterPath, "Test Central outpost registration path")
	fs.StringVar(&cfg.Central.Password, "central-password", cfg.Central.Password, "Test Central account password, used when no session is stored")
	fs.IntVar(&cfg.Central.Retries, "central-retries", cfg.Central.Retries, "Attempts to reach Test Central at startup")
}

func registerRunnerFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.StringVar(&cfg.Runner.Kind, "runner-kind", cfg.Runner.Kind, "Test runner: rake or podman")
	fs.StringVar(&cfg.Runner.RakeBin, "runner-rake-bin", cfg.Runner.RakeBin, "Rake executable")
	fs.StringVar(&cfg.Runner.Task, "runner-task", cfg.Runner.Task, "Rake task running the test cases")
	fs.DurationVar(&cfg.Runner.Timeout, "runner-timeout", cfg.Runner.Timeout, "Maximum duration of a run, 0 for none")
	fs.StringVar(&cfg.Runner.PodmanSocket, "runner-podman-socket", cfg.Runner.PodmanSocket, "Podman API socket, e.g. unix:///run/podman/podman.sock")
	fs.StringVar(&cfg.Runner.PodmanImage, "runner-podman-image", cfg.Runner.PodmanImage, "Image holding the test toolchain")
}

func registerArchiveFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.BoolVar(&cfg.Archive.Enabled, "archive-enabled", cfg.Archive.Enabled, "Upload result files of successful runs to object storage")
	fs.StringVar(&cfg.Archive.Endpoint, "archive-endpoint", cfg.Archive.Endpoint, "Object storage endpoint (host:port)")
	fs.StringVar(&cfg.Archive.AccessKey, "archive-access-key", cfg.Archive.AccessKey, "Object storage access key")
	fs.StringVar(&cfg.Archive.SecretKey, "archive-secret-key", cfg.Archive.SecretKey, "Object storage secret key")
	fs.StringVar(&cfg.Archive.Bucket, "archive-bucket", cfg.Archive.Bucket, "Bucket receiving result files")
	fs.BoolVar(&cfg.Archive.UseSSL, "archive-use-ssl", cfg.Archive.UseSSL, "Use TLS towards object storage")
	fs.StringVar(&cfg.Archive.Region, "archive-region", cfg.Archive.Region, "Object storage region")
}

func registerLogFlags(fs *pflag.FlagSet, cfg *config.Configuration) {
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
}

// loadConfig reads the optional config file, then fills every flag not set on
// the command line from the file or from OUTPOST_* environment variables.
func loadConfig(configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		viper.AutomaticEnv()
		viper.SetEnvPrefix(envPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

		if *configFile != "" {
			viper.SetConfigFile(*configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", *configFile, err)
			}
		}

		cobraflags.PresetRequiredFlags(envPrefix, make(map[*pflag.Flag]bool), cmd)
		return nil
	}
}
