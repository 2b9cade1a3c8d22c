package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/marsha-uploader/internal/common"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	if *username == "" {
		name, err := GetSimpleText(a.in, "Username", a.out)
		if err != nil {
			return err
		}
		*username = name
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pair, err := a.api.ObtainToken(ctx, *username, string(password))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := metadata.SaveSession(ctx, a.repos.Metadata, *username, pair); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", *username)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	a.tokens.Reset()
	if err := metadata.ClearSession(ctx, a.repos.Metadata); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
