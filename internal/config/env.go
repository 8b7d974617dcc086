package config

import (
	"os"
	"strconv"
)

// applyEnv layers TRACKER_* environment variables over the loaded file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TRACKER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TRACKER_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := getEnvInt("TRACKER_GATHER_WINDOW_DAYS"); v > 0 {
		c.Day.GatherWindowDays = v
	}
	if v := os.Getenv("TRACKER_ROUTINE_TIME"); v != "" {
		c.Day.DefaultRoutineTime = v
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
