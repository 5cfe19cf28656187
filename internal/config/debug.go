package config

import "os"

func IsDebug() bool {
	return os.Getenv("SHOPMIND_DEBUG") == "1"
}
