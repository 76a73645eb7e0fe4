package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"TeamHive/tools/errs"
	"TeamHive/tools/ids"
)

// BlobStore is the opaque "give me bytes, get back a URL" capability used
// for project logos and profile photos. The real object store lives behind
// this seam.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (url string, err error)
}

// LocalBlobStore keeps uploads on local disk and serves them from /uploads.
// Good enough for development and single-node deployments.
type LocalBlobStore struct {
	Dir     string // e.g. "./uploads"
	BaseURL string // e.g. "/uploads"
}

func (s *LocalBlobStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errs.WrapMsg(err, "blob dir")
	}
	fname := ids.GenerateString() + "_" + filepath.Base(name)
	f, err := os.Create(filepath.Join(s.Dir, fname))
	if err != nil {
		return "", errs.WrapMsg(err, "blob create")
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", errs.WrapMsg(err, "blob write")
	}
	return s.BaseURL + "/" + fname, nil
}
