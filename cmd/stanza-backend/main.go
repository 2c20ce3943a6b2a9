package main

import (
	"os"

	"github.com/stanza-hq/stanza-backend/backendservice"
)

func main() {
	if err := backendservice.Run(); err != nil {
		os.Exit(1)
	}
}
