// Package config loads and, once running, hot-reloads outaged's
// configuration via github.com/spf13/viper, bound to the CLI's pflag
// flag set the way the teacher's core/om/core/xconfig packages merge
// node configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys, all under the server/ namespace (§6).
const (
	KeyMaintenanceExpiration = "server.maintenance_expiration"
	KeyPollIntervalMS        = "server.poll_interval_ms"
	KeySaveIntervalMinutes   = "server.save_interval_minutes"
	KeyStateFile             = "server.state_file"
	KeyAssetExpirySec        = "server.asset_expiry_sec"
)

const (
	defaultMaintenanceExpirationSec = 3600
	defaultPollIntervalMS           = 5000
	defaultSaveIntervalMinutes      = 45
	defaultStateFile                = "/var/lib/fty-outage/state.zpl"
	defaultAssetExpirySec           = 450
)

// T wraps a viper instance carrying the server/* configuration keys.
type T struct {
	v *viper.Viper
}

// New returns a T with defaults set and flags bound.
func New(flags *pflag.FlagSet) *T {
	v := viper.New()
	v.SetEnvPrefix("FTY_OUTAGE")
	v.AutomaticEnv()

	v.SetDefault(KeyMaintenanceExpiration, defaultMaintenanceExpirationSec)
	v.SetDefault(KeyPollIntervalMS, defaultPollIntervalMS)
	v.SetDefault(KeySaveIntervalMinutes, defaultSaveIntervalMinutes)
	v.SetDefault(KeyStateFile, defaultStateFile)
	v.SetDefault(KeyAssetExpirySec, defaultAssetExpirySec)

	if flags != nil {
		_ = v.BindPFlags(flags)
	}
	return &T{v: v}
}

// Load reads path into the config, if it exists. A missing file is not
// an error: defaults (and any bound flags/env) still apply.
func (c *T) Load(path string) error {
	if path == "" {
		return nil
	}
	// The production config file follows the node.conf ini dialect
	// (§6); only override the format when the extension doesn't tell
	// viper what it's looking at.
	switch filepath.Ext(path) {
	case "", ".cfg", ".conf":
		c.v.SetConfigType("ini")
	}
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read config %s", path)
	}
	return nil
}

// WatchAndReload watches path's directory and re-reads the config file
// whenever it changes, invoking onChange afterwards, once the new values
// are readable through c. Errors setting up the watch are logged, not returned: a
// daemon that can't hot-reload should still run with what it already
// loaded.
func (c *T) WatchAndReload(onChange func()) {
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		log.Info().Str("path", c.v.ConfigFileUsed()).Msg("config file changed, reloading")
		onChange()
	})
	c.v.WatchConfig()
}

func (c *T) MaintenanceExpirationSec() int64 {
	return c.v.GetInt64(KeyMaintenanceExpiration)
}

func (c *T) PollInterval() time.Duration {
	return time.Duration(c.v.GetInt64(KeyPollIntervalMS)) * time.Millisecond
}

func (c *T) SaveInterval() time.Duration {
	return time.Duration(c.v.GetInt64(KeySaveIntervalMinutes)) * time.Minute
}

func (c *T) StateFile() string {
	return c.v.GetString(KeyStateFile)
}

func (c *T) AssetExpirySec() int64 {
	return c.v.GetInt64(KeyAssetExpirySec)
}
