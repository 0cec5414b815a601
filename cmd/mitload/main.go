package main

import (
	"github.com/paladin223/mit-service/cmd"
)

func main() {
	cmd.Execute()
}
