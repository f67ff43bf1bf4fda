package config

import "github.com/kelseyhightower/envconfig"

type switchEnv struct {
	EnableSearchLogs bool `envconfig:"ENABLE_SEARCH_LOGS" default:"false"`
	LogUserIDs       bool `envconfig:"LOG_USER_IDS" default:"false"`
}

// Switches reads the audit switches from the environment on every call, so
// flipping FINDER_ENABLE_SEARCH_LOGS or FINDER_LOG_USER_IDS applies to the
// next search without a restart. Unparsable values read as off.
type Switches struct{}

func (Switches) read() switchEnv {
	var env switchEnv
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return switchEnv{}
	}
	return env
}

func (s Switches) SearchLogsEnabled() bool {
	return s.read().EnableSearchLogs
}

func (s Switches) LogUserIDs() bool {
	return s.read().LogUserIDs
}
