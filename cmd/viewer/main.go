package main

import (
	"clipchat/internal"
	"fmt"
	"log"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// The viewer opens the store read-only next to a running shell and
// serves the inspector on its own, nothing else.
func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in read-only mode.
	// BypassLockGuard allows opening while another process holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Serve the inspector and block
	internal.StartDebugServer(db, config.DebugPort)
	fmt.Printf("Viewer started at http://127.0.0.1:%d/inspect\n", config.DebugPort)
	select {}
}
