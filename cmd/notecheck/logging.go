package main

import (
	"fmt"
	"strings"

	"notecheck/utils"
)

// configureLogger picks the level from the flag, then LOG_LEVEL, then info.
func configureLogger(flagLevel, flagFormat string) error {
	level, source := selectedSetting(flagLevel, utils.GetEnvAsString("LOG_LEVEL", ""))
	format, _ := selectedSetting(flagFormat, utils.GetEnvAsString("LOG_FORMAT", ""))

	if err := utils.InitLogger(level, format); err != nil {
		if source == "flag" {
			return fmt.Errorf("invalid --log-level %q", flagLevel)
		}
		_ = utils.InitLogger("", format)
		return nil
	}
	return nil
}

func selectedSetting(flagValue, envValue string) (string, string) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, "flag"
	}
	if strings.TrimSpace(envValue) != "" {
		return envValue, "env"
	}
	return "", "default"
}
