package main

import (
	"log"
	"os"

	"github.com/TFMV/fgr/cmd"
)

func main() {
	// Errors go to stderr without timestamps; stdout carries only results.
	log.SetFlags(0)
	log.SetPrefix("fgr: ")

	// Set up a deferred function to recover from panics.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v", r)
			os.Exit(1)
		}
	}()

	if err := cmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
