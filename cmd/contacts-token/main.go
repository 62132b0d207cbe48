// Package main mints a development token for the contacts API.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/contactkeeper/internal/cmd/contactstoken"
	"github.com/louisbranch/contactkeeper/internal/platform/config"
)

func main() {
	cfg, err := contactstoken.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := contactstoken.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("mint token: %v", err)
	}
}
