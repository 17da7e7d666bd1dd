package engine

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"
)

// Source is the raw text of a template as found by a Loader.
type Source struct {
	Name    string
	Path    string
	Code    string
	ModTime time.Time
}

type Loader interface {
	Source(name string) (Source, error)
	// IsFresh reports whether the template is unchanged since t.
	IsFresh(name string, t time.Time) (bool, error)
	Exists(name string) bool
}

// FilesystemLoader resolves template names against search paths inside fsys.
type FilesystemLoader struct {
	fsys  fs.FS
	paths []string
}

func NewFilesystemLoader(fsys fs.FS, paths ...string) *FilesystemLoader {
	l := &FilesystemLoader{fsys: fsys}
	for _, p := range paths {
		l.AddPath(p)
	}
	if len(l.paths) == 0 {
		l.paths = []string{"."}
	}
	return l
}

func (l *FilesystemLoader) AddPath(p string) {
	l.paths = append(l.paths, path.Clean(strings.TrimPrefix(p, "/")))
}

func (l *FilesystemLoader) Paths() []string {
	return append([]string(nil), l.paths...)
}

func (l *FilesystemLoader) Source(name string) (Source, error) {
	p, info, err := l.find(name)
	if err != nil {
		return Source{}, err
	}

	code, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read template %s: %w", p, err)
	}

	return Source{
		Name:    name,
		Path:    p,
		Code:    string(code),
		ModTime: info.ModTime(),
	}, nil
}

func (l *FilesystemLoader) IsFresh(name string, t time.Time) (bool, error) {
	_, info, err := l.find(name)
	if err != nil {
		return false, err
	}
	return info.ModTime().Before(t), nil
}

func (l *FilesystemLoader) Exists(name string) bool {
	_, _, err := l.find(name)
	return err == nil
}

func (l *FilesystemLoader) find(name string) (string, fs.FileInfo, error) {
	notFound := &NotFoundError{Name: name, Paths: l.Paths()}

	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if name == "" || !fs.ValidPath(clean) || clean == "." {
		return "", nil, notFound
	}

	for _, dir := range l.paths {
		p := path.Join(dir, clean)
		info, err := fs.Stat(l.fsys, p)
		if err != nil || info.IsDir() {
			continue
		}
		return p, info, nil
	}

	return "", nil, notFound
}
