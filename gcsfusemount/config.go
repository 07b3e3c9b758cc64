package gcsfusemount

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// DefaultConfigPath is the well-known location of the plugin's operational
// config file. GCSFUSE_MOUNT_CONFIG overrides it.
const DefaultConfigPath = "/etc/gcsfuse-mount/config.jsonc"

// PluginConfig is the on-disk, JSON-with-comments form of ExecConfig (see
// environment.go). Every field is optional; an absent or missing file
// yields DefaultExecConfig() unchanged. Comments are supported in both
// .json and .jsonc files via hujson.
type PluginConfig struct {
	DaemonPath       string `json:"daemonPath,omitempty"`
	FusermountPath   string `json:"fusermountPath,omitempty"`
	UmountPath       string `json:"umountPath,omitempty"`
	LoggerPath       string `json:"loggerPath,omitempty"`
	SyslogTag        string `json:"syslogTag,omitempty"`
	MountWaitRetries int    `json:"mountWaitRetries,omitempty"`
	MountWaitSleepMS int    `json:"mountWaitSleepMs,omitempty"`
	DefaultFlags     string `json:"defaultFlags,omitempty"`
}

// LoadExecConfig loads ExecConfig from path, applying any set fields over
// DefaultExecConfig(). A missing file is not an error: the defaults apply
// unchanged.
func LoadExecConfig(path string) (ExecConfig, error) {
	cfg := DefaultExecConfig()

	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return ExecConfig{}, fmt.Errorf("%w: reading plugin config %s: %w", ErrIO, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return ExecConfig{}, fmt.Errorf("%w: parsing plugin config %s: %w", ErrIO, path, err)
	}

	var override PluginConfig

	err = json.Unmarshal(standardized, &override)
	if err != nil {
		return ExecConfig{}, fmt.Errorf("%w: parsing plugin config %s: %w", ErrIO, path, err)
	}

	applyPluginConfigOverride(&cfg, override)

	return cfg, nil
}

func applyPluginConfigOverride(cfg *ExecConfig, override PluginConfig) {
	if override.DaemonPath != "" {
		cfg.DaemonPath = override.DaemonPath
	}

	if override.FusermountPath != "" {
		cfg.FusermountPath = override.FusermountPath
	}

	if override.UmountPath != "" {
		cfg.UmountPath = override.UmountPath
	}

	if override.LoggerPath != "" {
		cfg.LoggerPath = override.LoggerPath
	}

	if override.SyslogTag != "" {
		cfg.SyslogTag = override.SyslogTag
	}

	if override.MountWaitRetries > 0 {
		cfg.MountWaitRetries = override.MountWaitRetries
	}

	if override.MountWaitSleepMS > 0 {
		cfg.MountWaitSleep = time.Duration(override.MountWaitSleepMS) * time.Millisecond
	}

	if override.DefaultFlags != "" {
		cfg.DefaultFlags = override.DefaultFlags
	}
}

// ConfigPathFromEnv resolves the plugin config path from GCSFUSE_MOUNT_CONFIG,
// falling back to DefaultConfigPath.
func ConfigPathFromEnv(env map[string]string) string {
	if path := env["GCSFUSE_MOUNT_CONFIG"]; path != "" {
		return path
	}

	return DefaultConfigPath
}
