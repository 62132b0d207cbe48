// Package main is a command-line client for the contacts API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/contactkeeper/internal/cmd/contactsctl"
	"github.com/louisbranch/contactkeeper/internal/platform/config"
)

func main() {
	cfg, err := contactsctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[CONTACTSCTL] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := contactsctl.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("%s: %v", cfg.Command, err)
	}
}
