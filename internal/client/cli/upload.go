package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/api"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/uploads"
	"github.com/dmitrijs2005/marsha-uploader/internal/filex"
)

// parseUploadItems turns the positional arguments into upload items: either a
// single FILE with -id, or any number of ID=FILE pairs.
func parseUploadItems(kind models.ObjectType, parent, id string, args []string) ([]uploads.Item, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no file given", ErrUsage)
	}

	var pairs [][2]string
	if id != "" {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: -id takes exactly one file", ErrUsage)
		}
		pairs = append(pairs, [2]string{id, args[0]})
	} else {
		for _, arg := range args {
			objectID, path, ok := strings.Cut(arg, "=")
			if !ok || objectID == "" || path == "" {
				return nil, fmt.Errorf("%w: expected ID=FILE, got %q", ErrUsage, arg)
			}
			pairs = append(pairs, [2]string{objectID, path})
		}
	}

	items := make([]uploads.Item, 0, len(pairs))
	for _, p := range pairs {
		ref := models.ObjectRef{Type: kind, ID: p[0], ParentID: parent}
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		file, err := filex.Open(p[1])
		if err != nil {
			return nil, err
		}
		items = append(items, uploads.Item{Ref: ref, File: file})
	}
	return items, nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(a.out)
	kindName := fs.String("kind", string(models.ObjectTypeVideo), "object type")
	parent := fs.String("parent", "", "parent object id for nested kinds")
	id := fs.String("id", "", "object id, when uploading a single file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	kind, err := models.ParseObjectType(*kindName)
	if err != nil {
		return err
	}
	items, err := parseUploadItems(kind, *parent, *id, fs.Args())
	if err != nil {
		return err
	}

	reconciler := uploads.NewReconciler(a.manager, a.registry, a.api, a.reporter, a.logger, a.config.PollInterval)
	stop := reconciler.Start(ctx)

	unsubscribe := a.manager.Subscribe(a.printProgress())
	err = a.uploader.UploadMany(ctx, items)
	unsubscribe()
	stop()

	for _, e := range a.manager.List() {
		res, _ := a.registry.MustStore(e.Ref.Type).Get(e.Ref.ID)
		fmt.Fprintf(a.out, "%-40s %-9s %3d%%  %s\n", e.Ref, e.Status, e.Progress, describeFailure(e.Err, res))
	}
	return err
}

// printProgress prints a line each time an entry changes status or moves by
// at least ten percent.
func (a *App) printProgress() func(uploads.Event) {
	var mu sync.Mutex
	last := map[string]int{}

	return func(ev uploads.Event) {
		mu.Lock()
		defer mu.Unlock()

		e := ev.Entry
		if ev.Removed {
			return
		}
		if e.Status == ev.Previous && e.Status == uploads.StatusUploading && e.Progress-last[e.Ref.ID] < 10 && e.Progress != 100 {
			return
		}
		last[e.Ref.ID] = e.Progress
		fmt.Fprintf(a.out, "  %s: %s %d%%\n", e.Ref, e.Status, e.Progress)
	}
}

func describeFailure(err error, res models.Resource) string {
	if err == nil {
		if res.UploadState != "" {
			return "upload_state=" + string(res.UploadState)
		}
		return ""
	}
	var sizeErr *api.SizeError
	if errors.As(err, &sizeErr) {
		return fmt.Sprintf("file too large: %v", sizeErr.Data["size"])
	}
	return err.Error()
}
