package cloud

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalProvider keeps objects as files under a directory.
type LocalProvider struct {
	dir string
}

func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	if err := ValidateLocalConfig(cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, &CloudError{
			Code:    "LOCAL_DIR_ERROR",
			Message: "failed to create archive directory",
			Cause:   err,
		}
	}

	return &LocalProvider{dir: cfg.Dir}, nil
}

func (p *LocalProvider) Name() string {
	return "local"
}

func (p *LocalProvider) path(key string) string {
	return filepath.Join(p.dir, filepath.FromSlash(key))
}

// Put writes through a temp file and rename so readers never see partial objects.
func (p *LocalProvider) Put(_ context.Context, obj *Object) (*ObjectInfo, error) {
	if obj == nil {
		return nil, ErrInvalidKey
	}
	if err := validKey(obj.Key); err != nil {
		return nil, err
	}

	target := p.path(obj.Key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, &CloudError{Code: "UPLOAD_FAILED", Message: "failed to create object directory", Cause: err}
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, obj.Content, 0o644); err != nil {
		return nil, &CloudError{Code: "UPLOAD_FAILED", Message: "failed to write object", Cause: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return nil, &CloudError{Code: "UPLOAD_FAILED", Message: "failed to commit object", Cause: err}
	}

	return p.stat(obj.Key, obj.ContentType)
}

func (p *LocalProvider) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &CloudError{Code: ErrObjectNotFound.Code, Message: "object not found in archive directory", Cause: err}
	}
	if err != nil {
		return nil, &CloudError{Code: "DOWNLOAD_FAILED", Message: "failed to read object", Cause: err}
	}
	return data, nil
}

func (p *LocalProvider) List(_ context.Context, prefix string) ([]*ObjectInfo, error) {
	var objects []*ObjectInfo

	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := p.stat(key, "")
		if err != nil {
			return err
		}
		objects = append(objects, info)
		return nil
	})
	if err != nil {
		return nil, &CloudError{Code: "LIST_FAILED", Message: "failed to list archive directory", Cause: err}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (p *LocalProvider) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	err := os.Remove(p.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &CloudError{Code: "DELETE_FAILED", Message: "failed to delete object", Cause: err}
	}
	return nil
}

func (p *LocalProvider) stat(key, contentType string) (*ObjectInfo, error) {
	fi, err := os.Stat(p.path(key))
	if err != nil {
		return nil, err
	}
	return &ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		ContentType:  contentType,
		LastModified: fi.ModTime().UTC(),
		URL:          "file://" + filepath.ToSlash(p.path(key)),
	}, nil
}
