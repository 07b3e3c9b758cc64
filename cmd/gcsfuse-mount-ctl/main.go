package main

import (
	"os"
)

func main() {
	env := make(map[string]string, len(os.Environ()))

	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]

				break
			}
		}
	}

	os.Exit(Run(os.Args, env, os.Stdin, os.Stdout, os.Stderr))
}
