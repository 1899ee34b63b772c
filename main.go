package main

import (
	"os"

	"github.com/campushub/portal/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
