// Package testing provides an in-memory fs.FS for exercising template loaders.
package testing

import (
	"io"
	"io/fs"
	"path"
	"sort"
	"time"
)

// MemoryFS implements fs.FS, fs.StatFS and fs.ReadDirFS.
type MemoryFS struct {
	files map[string]*MemoryFile
	now   func() time.Time
}

type MemoryFile struct {
	name    string
	content []byte
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: make(map[string]*MemoryFile),
		now:   time.Now,
	}
}

// WriteFile creates or replaces name, creating parent directories.
func (mfs *MemoryFS) WriteFile(name string, data []byte) {
	name = path.Clean(name)
	mfs.files[name] = &MemoryFile{
		name:    name,
		content: data,
		mode:    0o644,
		modTime: mfs.now(),
	}

	mfs.ensureDir(path.Dir(name))
}

// Touch sets the modification time of an existing entry.
func (mfs *MemoryFS) Touch(name string, modTime time.Time) {
	if file, ok := mfs.files[path.Clean(name)]; ok {
		file.modTime = modTime
	}
}

func (mfs *MemoryFS) Remove(name string) {
	delete(mfs.files, path.Clean(name))
}

func (mfs *MemoryFS) ensureDir(dir string) {
	if dir == "." || dir == "/" {
		return
	}

	if _, exists := mfs.files[dir]; !exists {
		mfs.files[dir] = &MemoryFile{
			name:    dir,
			mode:    0o755 | fs.ModeDir,
			modTime: mfs.now(),
			isDir:   true,
		}
		mfs.ensureDir(path.Dir(dir))
	}
}

func (mfs *MemoryFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &memoryFileHandle{file: &MemoryFile{name: ".", mode: 0o755 | fs.ModeDir, isDir: true}, mfs: mfs, path: "."}, nil
	}
	file, exists := mfs.files[name]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memoryFileHandle{file: file, mfs: mfs, path: name}, nil
}

func (mfs *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	f, err := mfs.Open(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	defer f.Close()
	return f.Stat()
}

func (mfs *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	name = path.Clean(name)

	var entries []fs.DirEntry
	for filePath, file := range mfs.files {
		if path.Dir(filePath) == name {
			entries = append(entries, &memoryDirEntry{file})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

type memoryFileHandle struct {
	file   *MemoryFile
	mfs    *MemoryFS
	path   string
	offset int
}

func (f *memoryFileHandle) Read(b []byte) (int, error) {
	if f.file.isDir {
		return 0, &fs.PathError{Op: "read", Path: f.path, Err: fs.ErrInvalid}
	}

	if f.offset >= len(f.file.content) {
		return 0, io.EOF
	}

	n := copy(b, f.file.content[f.offset:])
	f.offset += n
	return n, nil
}

func (f *memoryFileHandle) Stat() (fs.FileInfo, error) {
	return f.file, nil
}

func (f *memoryFileHandle) Close() error {
	return nil
}

func (f *memoryFileHandle) ReadDir(n int) ([]fs.DirEntry, error) {
	if !f.file.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: f.path, Err: fs.ErrInvalid}
	}

	entries, err := f.mfs.ReadDir(f.path)
	if err != nil {
		return nil, err
	}

	if n <= 0 || n > len(entries) {
		return entries, nil
	}
	return entries[:n], nil
}

type memoryDirEntry struct {
	file *MemoryFile
}

func (e *memoryDirEntry) Name() string               { return path.Base(e.file.name) }
func (e *memoryDirEntry) IsDir() bool                { return e.file.isDir }
func (e *memoryDirEntry) Type() fs.FileMode          { return e.file.mode.Type() }
func (e *memoryDirEntry) Info() (fs.FileInfo, error) { return e.file, nil }

func (f *MemoryFile) Name() string       { return path.Base(f.name) }
func (f *MemoryFile) Size() int64        { return int64(len(f.content)) }
func (f *MemoryFile) Mode() fs.FileMode  { return f.mode }
func (f *MemoryFile) ModTime() time.Time { return f.modTime }
func (f *MemoryFile) IsDir() bool        { return f.isDir }
func (f *MemoryFile) Sys() any           { return nil }
