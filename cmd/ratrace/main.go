package main

import (
	"github.com/ratrace-game/server/internal/cli"
)

func main() {
	cli.Execute()
}
