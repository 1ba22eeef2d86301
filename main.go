package main

import (
	_ "extensions.GO/custom"

	"extensions.GO/cmd"
	"extensions.GO/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
