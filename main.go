package main

import (
	"log"

	"github.com/talvik/intervu/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
