package main

import (
	"os"
	"strings"
)

func main() {
	if err := newRootCmd(environ()).Execute(); err != nil {
		os.Exit(1)
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
