package main

import (
	"github.com/Sri-Ramapriyan/Invisible-cloak/cmd/cloak/commands"
)

func main() {
	commands.Execute()
}
