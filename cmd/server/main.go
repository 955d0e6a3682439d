package main

import "github.com/anonto42/postboard/cmd/server/commands"

func main() {
	commands.Execute()
}
