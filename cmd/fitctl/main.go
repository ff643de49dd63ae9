package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"

	"fitness-platform/cmd/fitctl/commands"
)

func main() {
	_ = godotenv.Load()
	commands.Execute()
}
