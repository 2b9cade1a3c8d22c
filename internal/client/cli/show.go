package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
)

func (a *App) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(a.out)
	kindName := fs.String("kind", "", "object type, all kinds when empty")
	id := fs.String("id", "", "fetch this object from the API")
	parent := fs.String("parent", "", "parent object id for nested kinds")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	kinds := models.ObjectTypes
	if *kindName != "" {
		kind, err := models.ParseObjectType(*kindName)
		if err != nil {
			return err
		}
		kinds = []models.ObjectType{kind}
	}

	if *id != "" {
		if len(kinds) != 1 {
			return fmt.Errorf("%w: -id needs -kind", ErrUsage)
		}
		ref := models.ObjectRef{Type: kinds[0], ID: *id, ParentID: *parent}
		if err := ref.Validate(); err != nil {
			return err
		}
		res, err := a.api.GetResource(ctx, ref)
		if err != nil {
			return err
		}
		a.registry.MustStore(ref.Type).Add(res)
	}

	n := 0
	for _, kind := range kinds {
		for _, res := range a.registry.MustStore(kind).All() {
			fmt.Fprintf(a.out, "%-20s %-36s %-11s %s\n", kind, res.ID, res.UploadState, res.Title)
			n++
		}
	}
	if n == 0 {
		fmt.Fprintln(a.out, "No resources cached")
	}
	return nil
}
