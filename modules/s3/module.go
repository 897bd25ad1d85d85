package s3

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the actions.Module interface for this package.
type Module struct{}

// httpClient is a shared client for all transfers to reuse TCP connections.
var httpClient = &http.Client{}

// Input defines the arguments of an `action "s3"` block. URL is a pre-signed
// object URL; Path is the local file, relative to the build file directory.
type Input struct {
	Action  string `hcl:"action"`
	Path    string `hcl:"path"`
	URL     string `hcl:"url"`
	PerItem bool   `hcl:"per_item,optional"`
}

type control struct {
	PerItem bool     `hcl:"per_item,optional"`
	Remain  hcl.Body `hcl:",remain"`
}

// Run is the handler for the 's3' action. With per_item set, the block is
// evaluated once per partition item with `item` bound, and transfers run in
// item order.
func Run(ctx context.Context, call *actions.Call) error {
	var ctl control
	if err := call.Args.Decode(&ctl); err != nil {
		return err
	}
	if !ctl.PerItem {
		return transfer(ctx, call, call.Args)
	}
	for _, item := range call.Invocation.Items {
		if err := transfer(ctx, call, call.Args.With("item", cty.StringVal(item))); err != nil {
			return err
		}
	}
	return nil
}

func transfer(ctx context.Context, call *actions.Call, args actions.Args) error {
	var input Input
	if err := args.Decode(&input); err != nil {
		return err
	}
	path := input.Path
	if !filepath.IsAbs(path) && call.Dir != "" {
		path = filepath.Join(call.Dir, path)
	}

	switch strings.ToLower(input.Action) {
	case "upload":
		return upload(ctx, path, input.URL)
	case "download":
		return download(ctx, path, input.URL)
	default:
		return fmt.Errorf("unknown s3 action: '%s'", input.Action)
	}
}

// upload PUTs the file at path to url.
func upload(ctx context.Context, path, url string) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats for '%s': %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("failed to create S3 upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3", "source", path, "size", stat.Size(), "contentType", contentType)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("S3 upload of '%s' failed with status: %s", path, resp.Status)
	}

	logger.Info("Successfully uploaded file", "status", resp.Status)
	return nil
}

// download GETs url into path, creating parent directories.
func download(ctx context.Context, path, url string) error {
	logger := ctxlog.FromContext(ctx).With("action", "download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create S3 download request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute S3 download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("S3 download to '%s' failed with status: %s", path, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	n, err := io.Copy(file, resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}

	logger.Info("Successfully downloaded file", "dest", path, "size", n)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *actions.Registry) {
	r.Register("s3", Run)
}
