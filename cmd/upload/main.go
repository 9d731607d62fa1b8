// Command upload puts a local file into the media bucket or deletes an object
// from it. The printed key is the reference to store on content records.
//
// Usage:
//
//	go run ./cmd/upload put [-path portfolio] ./m31.jpg
//	go run ./cmd/upload delete https://host/bucket/portfolio/abc123.jpg
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"Pfrastro/internal/config"
	"Pfrastro/internal/core/objectstore"
)

// hashLength is the number of hex characters of the content hash used in keys
const hashLength = 16

func usage() {
	fmt.Fprintln(os.Stderr, "usage: upload put [-path <folder>] <file>")
	fmt.Fprintln(os.Stderr, "       upload delete <key-or-url>")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireStorage(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	client, err := objectstore.NewClient(objectstore.Config{
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
	}, objectstore.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create object store client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "put":
		fs := flag.NewFlagSet("put", flag.ExitOnError)
		folder := fs.String("path", "", "folder prefix for the object key")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			usage()
			os.Exit(2)
		}

		key, err := put(ctx, client, fs.Arg(0), *folder)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)

	case "delete":
		if len(os.Args) != 3 {
			usage()
			os.Exit(2)
		}
		if err := client.Delete(ctx, os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "delete failed: %v\n", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}

// uploader is the part of the object store client put needs
type uploader interface {
	Upload(ctx context.Context, f objectstore.File) (string, error)
}

func put(ctx context.Context, client uploader, path, folder string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	hash, err := contentHash(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	return client.Upload(ctx, objectstore.File{
		Body:        f,
		Path:        folder,
		Hash:        hash,
		Ext:         ext,
		ContentType: mime.TypeByExtension(ext),
	})
}

// contentHash names objects by content so re-uploading a file reuses its key
func contentHash(r io.Reader) (string, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", errors.New("file is empty")
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLength], nil
}
