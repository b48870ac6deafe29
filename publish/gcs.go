// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package publish

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// GCS describes a Google Cloud Storage location to upload files to.
type GCS struct {
	Bucket string
	Prefix string // object name prefix, without a trailing slash

	// Token is an OAuth2 access token. If empty, the application
	// default credentials are used.
	Token string

	// Endpoint overrides the storage API endpoint.
	Endpoint string
}

// Enabled reports whether a bucket is configured.
func (g GCS) Enabled() bool {
	return g.Bucket != ""
}

// ObjectName returns the name of the object that file is uploaded to.
func ObjectName(prefix, file string) string {
	return path.Join(prefix, filepath.Base(file))
}

// ContentType returns the MIME type of the named file.
func ContentType(file string) string {
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (g GCS) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if g.Token != "" {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.Token})))
	}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}
	return opts
}

// Upload copies the named files into the bucket.
func (g GCS) Upload(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	client, err := storage.NewClient(ctx, g.clientOptions()...)
	if err != nil {
		return fmt.Errorf("gcs: %w", err)
	}
	defer client.Close()
	bkt := client.Bucket(g.Bucket)
	for _, file := range files {
		if err := upload(ctx, bkt, ObjectName(g.Prefix, file), file); err != nil {
			return fmt.Errorf("gcs: uploading %s to gs://%s: %w", file, g.Bucket, err)
		}
	}
	return nil
}

func upload(ctx context.Context, bkt *storage.BucketHandle, name, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bkt.Object(name).NewWriter(ctx)
	w.ContentType = ContentType(file)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
