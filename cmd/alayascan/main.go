// Command alayascan summarizes a book by title or scans a directory for book
// files and optionally saves them to the alaya database.
//
//	alayascan "Invisible Cities"
//	alayascan --scan-dir ~/books --save
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mrlokans/alaya/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env: %v", err)
	}

	if err := newRootCommand(config.NewConfig()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
