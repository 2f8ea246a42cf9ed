// One-off session keystore tool. Inspects the persisted session key file or
// resets it without going through the daemon.
// Usage:
//
//	sessionctl show   [-path file]
//	sessionctl reset  [-path file]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/VDuda/arcade-sol/internal/config"
	"github.com/VDuda/arcade-sol/internal/keystore"
	"github.com/VDuda/arcade-sol/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	path := fs.String("path", "", "session key file (default: config location)")
	fs.Parse(os.Args[2:])

	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *path == "" {
		*path = config.GetSessionKeyPath()
	}

	switch cmd {
	case "show":
		address, err := keystore.ReadAddress(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(address)
	case "reset":
		if err := config.PromptForPassphrase(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		store := session.NewStore(*path, config.GetPassphraseBytes())
		identity, err := store.Reset()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(identity.Address().String())
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sessionctl {show|reset} [-path file]")
	os.Exit(2)
}
