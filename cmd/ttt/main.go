package main

import (
	"github.com/lexc24/tictactoe/internal/cli"
)

func main() {
	cli.Execute()
}
