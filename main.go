package main

import (
	"os"

	"github.com/gopalparivar/dhenu-mahima/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
