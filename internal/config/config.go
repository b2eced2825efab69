package config

import "time"

//go:generate go run github.com/ecordell/optgen -output zz_generated.options.go . Configuration
type Configuration struct {
	Server    Server  `debugmap:"visible"`
	Outpost   Outpost `debugmap:"visible"`
	Central   Central `debugmap:"sensitive"`
	Runner    Runner  `debugmap:"visible"`
	Archive   Archive `debugmap:"sensitive"`
	LogFormat string  `debugmap:"visible" default:"console"`
	LogLevel  string  `debugmap:"visible" default:"debug"`
}

type Server struct {
	HTTPPort   int    `default:"4567"`
	ServerMode string `default:"dev"`
	// TLSEnabled serves HTTPS with a self-signed certificate generated at startup.
	TLSEnabled bool
}

type Outpost struct {
	// Name reported to Test Central. Empty means the host name.
	Name string
	Silo string
	// WorkDir holds the silos. Inventory, results and the test task all resolve
	// relative to it.
	WorkDir string `default:"."`
	// ExternalHost overrides the advertised host. Empty means the first
	// non-loopback IPv4 address.
	ExternalHost     string
	KeepFailedResult bool
}

type Central struct {
	URL          string
	SSOPath      string        `default:"/rest/v1/sso"`
	RegisterPath string        `default:"/rest/v1/outposts"`
	SessionFile  string        `default:".outpost-session"`
	Email        string
	Password     string
	Retries      int           `default:"5"`
	Timeout      time.Duration `default:"10s"`
}

type Runner struct {
	// Kind is rake or podman.
	Kind         string        `default:"rake"`
	RakeBin      string        `default:"rake"`
	Task         string        `default:"lf_ws"`
	Timeout      time.Duration `default:"0s"`
	PodmanSocket string
	PodmanImage  string
}

type Archive struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string `default:"outpost-results"`
	UseSSL    bool
	Region    string
}
