// Package main generates a development Certificate Authority (CA) and a
// server certificate signed by it, writing them under the output directory.
//
// Run the server with --tls-cert certs/server.crt --tls-key certs/server.key
// and point the client at the CA with --ca certs/ca.crt.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/atinyakov/ContactKeeper/internal/certgen"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("certgen", pflag.ContinueOnError)
	dir := fs.StringP("out", "o", "certs", "output directory")
	hosts := fs.StringSlice("host", []string{"localhost", "127.0.0.1"}, "server host names or IPs")
	reuseCA := fs.Bool("reuse-ca", false, "sign with an existing ca.crt/ca.key in the output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		ca  *certgen.Credentials
		err error
	)
	if *reuseCA {
		ca, err = certgen.LoadCACredentials(filepath.Join(*dir, "ca.crt"), filepath.Join(*dir, "ca.key"))
	} else {
		ca, err = certgen.GenerateCA("ContactKeeper Dev CA")
		if err == nil {
			err = ca.WriteFiles(*dir, "ca")
		}
	}
	if err != nil {
		return err
	}

	srv, err := certgen.GenerateServerCertificate(*hosts, ca)
	if err != nil {
		return err
	}
	if err := srv.WriteFiles(*dir, "server"); err != nil {
		return err
	}

	fmt.Printf("✅ Certificates generated into %s\n", *dir)
	return nil
}
