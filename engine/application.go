package engine

import (
	"github.com/spaghettifunk/sinapsi/engine/core"
)

type ApplicationConfig struct {
	// The application name used in logging, if applicable.
	Name string
	// the minimum level of logging
	LogLevel core.LogLevel
	// Directory indexed and watched for graph assets.
	// Defaults to <working dir>/assets when empty.
	AssetsDir string
	// Path of the TOML file the editor options persist to.
	// Defaults to <working dir>/settings.toml when empty.
	SettingsPath string
}
