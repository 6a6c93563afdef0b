package internal

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var colonSpaces = regexp.MustCompile(": +")

// TrimLines flattens an indented JSON literal so it can be compared with a
// marshaled body.
func TrimLines(s string) string {
	trimmed := colonSpaces.ReplaceAllString(s, ":")
	trimmed = strings.ReplaceAll(trimmed, "\n", "")
	trimmed = strings.ReplaceAll(trimmed, "\t", "")
	return strings.TrimSpace(trimmed)
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MustEnv returns the value of key and panics when it is blank.
func MustEnv(key string) string {
	value := os.Getenv(key)
	if IsBlank(value) {
		panic(fmt.Sprintf("%s is empty", key))
	}
	return value
}

func EnvOr(key string, fallback string) string {
	value := os.Getenv(key)
	if IsBlank(value) {
		return fallback
	}
	return value
}
