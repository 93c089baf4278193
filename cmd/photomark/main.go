package main

import (
	"github.com/photomark/photomark/config"
	"github.com/photomark/photomark/pkg/ui"
	"github.com/photomark/photomark/util/log"
)

func main() {
	ok, err := acquireLock()
	if err != nil {
		log.Fatalf("Failed to check for a running instance: %v", err)
	}
	if !ok {
		log.Printf("Another instance of %s is already running.", config.AppName)
		return
	}
	defer releaseLock()

	if err := config.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create config directory: %v", err)
	}

	ui.GetInstance().Run()
}
