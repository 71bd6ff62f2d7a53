// Package fsx contains io/fs extensions used to open dump files.
package fsx

import (
	"io"
	"io/fs"
	"os"
	"syscall"

	"go.uber.org/multierr"
)

// OpenFile is a wrapper for os.Open that ensures that we're opening a
// regular file rather than a directory. If you are opening a directory,
// this func returns an *os.PathError error with Err set to syscall.EISDIR.
func OpenFile(pathname string) (fs.File, error) {
	return openWithFS(filesystem{}, pathname)
}

// openWithFS is like OpenFile but with explicit file system argument.
func openWithFS(fsys fs.FS, pathname string) (fs.File, error) {
	file, err := fsys.Open(pathname)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, &os.PathError{
			Op:   "openFile",
			Path: pathname,
			Err:  syscall.EISDIR,
		}
	}
	return file, nil
}

// filesystem is a private implementation of fs.FS.
type filesystem struct{}

// Open implements fs.FS.Open.
func (filesystem) Open(pathname string) (fs.File, error) {
	return os.Open(pathname)
}

// Files is a set of open files closed together.
type Files []io.Closer

// Close closes every file and returns all the errors combined.
func (fs Files) Close() (err error) {
	for _, fp := range fs {
		err = multierr.Append(err, fp.Close())
	}
	return
}

// OpenFiles opens every pathname with OpenFile. On failure, the files
// opened so far are closed and the first error is returned.
func OpenFiles(pathnames ...string) ([]fs.File, Files, error) {
	var (
		opened  []fs.File
		closers Files
	)
	for _, pathname := range pathnames {
		fp, err := OpenFile(pathname)
		if err != nil {
			closers.Close()
			return nil, nil, err
		}
		opened = append(opened, fp)
		closers = append(closers, fp)
	}
	return opened, closers, nil
}
