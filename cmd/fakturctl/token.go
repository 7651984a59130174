package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"fakturscan/internal/auth"
	"fakturscan/internal/config"
)

func runToken(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	sub := fs.StringP("sub", "s", "", "token subject, e.g. the calling service")
	ttl := fs.Duration("ttl", 0, "token lifetime (default jwt.access_expiry)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, expiresAt, err := auth.NewTokenManager(cfg.JWT).Issue(*sub, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	fmt.Fprintf(stdout, "# expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}
