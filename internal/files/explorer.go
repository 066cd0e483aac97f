// Package files implements the shared file browser. Every path handed to an Explorer is
// relative to its root and is rejected when it resolves outside of it.
package files

import (
	"archive/zip"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "it-inventory/internal/errors"

	"golang.org/x/text/cases"
)

const (
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
)

// Listing is the content of one directory, or the matches of a recursive search below it.
type Listing struct {
	Path    string   `json:"path"`
	Folders []string `json:"folders"`
	Files   []string `json:"files"`
}

type Explorer struct {
	root string
}

// New creates the root directory if needed and returns an Explorer confined to it.
func New(root string) (*Explorer, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create files root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve files root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve files root: %w", err)
	}
	return &Explorer{root: resolved}, nil
}

func (e *Explorer) Root() string { return e.root }

// Resolve maps a root-relative path to an absolute one. Symlinks are followed; a result
// outside the root is PERMISSION_DENIED.
func (e *Explorer) Resolve(rel string) (string, error) {
	joined := filepath.Join(e.root, filepath.FromSlash(strings.TrimLeft(rel, `/\`)))
	if !e.contains(joined) {
		return "", apperrors.New(apperrors.ErrPermission, "path outside of the shared folder")
	}

	resolved, err := evalExisting(joined)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "resolve path", err)
	}
	if !e.contains(resolved) {
		return "", apperrors.New(apperrors.ErrPermission, "path outside of the shared folder")
	}
	return resolved, nil
}

func (e *Explorer) contains(p string) bool {
	rel, err := filepath.Rel(e.root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// relative turns an absolute path under the root back into a slash-separated relative one.
func (e *Explorer) relative(abs string) string {
	rel, err := filepath.Rel(e.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// evalExisting evaluates symlinks in the longest existing prefix of p and appends the rest.
func evalExisting(p string) (string, error) {
	var rest []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// List returns the entries of dir. With a query it searches recursively for names containing
// the query, ignoring case, and returns paths relative to dir.
func (e *Explorer) List(dir, query, sortOrder string) (Listing, error) {
	if sortOrder == "" {
		sortOrder = SortNameAsc
	}
	if sortOrder != SortNameAsc && sortOrder != SortNameDesc {
		return Listing{}, apperrors.Validation("invalid sort order", map[string]string{"sort": "invalid_choice"})
	}

	abs, err := e.Resolve(dir)
	if err != nil {
		return Listing{}, err
	}
	out := Listing{Path: e.relative(abs), Folders: []string{}, Files: []string{}}

	info, err := os.Stat(abs)
	if stderrors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return Listing{}, apperrors.Wrap(apperrors.ErrInternal, "stat directory", err)
	}
	if !info.IsDir() {
		return Listing{}, apperrors.Validation("not a directory", map[string]string{"dir": "not_a_directory"})
	}

	fold := cases.Fold()
	if q := fold.String(strings.TrimSpace(query)); q != "" {
		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == abs || !strings.Contains(fold.String(d.Name()), q) {
				return nil
			}
			rel, _ := filepath.Rel(abs, p)
			if d.IsDir() {
				out.Folders = append(out.Folders, filepath.ToSlash(rel))
			} else {
				out.Files = append(out.Files, filepath.ToSlash(rel))
			}
			return nil
		})
	} else {
		var entries []os.DirEntry
		entries, err = os.ReadDir(abs)
		for _, d := range entries {
			if d.IsDir() {
				out.Folders = append(out.Folders, d.Name())
			} else {
				out.Files = append(out.Files, d.Name())
			}
		}
	}
	if err != nil {
		return Listing{}, apperrors.Wrap(apperrors.ErrInternal, "read directory", err)
	}

	sortNames(out.Folders, sortOrder)
	sortNames(out.Files, sortOrder)
	return out, nil
}

func sortNames(names []string, order string) {
	if order == SortNameDesc {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
		return
	}
	sort.Strings(names)
}

// Mkdir creates name inside parent. An existing folder is a validation error.
func (e *Explorer) Mkdir(parent, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.Validation("folder name is required", map[string]string{"new_folder_name": "required"})
	}
	abs, err := e.Resolve(joinRel(parent, name))
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return apperrors.Validation("folder already exists", map[string]string{"new_folder_name": "exists"})
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "create folder", err)
	}
	return nil
}

// Delete removes a file or a whole folder. The root itself cannot be deleted.
func (e *Explorer) Delete(rel string) error {
	abs, err := e.existing(rel)
	if err != nil {
		return err
	}
	if abs == e.root {
		return apperrors.New(apperrors.ErrPermission, "the shared folder root cannot be deleted")
	}
	if err := os.RemoveAll(abs); err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "delete", err)
	}
	return nil
}

// Rename moves oldRel to newRel and returns the folder that now holds it.
func (e *Explorer) Rename(oldRel, newRel string) (string, error) {
	from, err := e.existing(oldRel)
	if err != nil {
		return "", err
	}
	to, err := e.Resolve(newRel)
	if err != nil {
		return "", err
	}
	if from == e.root || to == e.root {
		return "", apperrors.New(apperrors.ErrPermission, "the shared folder root cannot be renamed")
	}
	if err := os.Rename(from, to); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "rename", err)
	}
	return e.relative(filepath.Dir(to)), nil
}

// MoveToParent moves an entry one folder up. Entries directly under the root cannot move.
func (e *Explorer) MoveToParent(rel string) error {
	from, err := e.existing(rel)
	if err != nil {
		return err
	}
	parent := filepath.Dir(filepath.Dir(from))
	to := filepath.Join(parent, filepath.Base(from))
	if from == e.root || !e.contains(to) {
		return apperrors.New(apperrors.ErrPermission, "cannot move above the shared folder")
	}
	if err := os.Rename(from, to); err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "move to parent", err)
	}
	return nil
}

// Save writes an uploaded file into dir. Only the base name of filename is used.
func (e *Explorer) Save(dir, filename string, src io.Reader) (string, error) {
	name := filepath.Base(filepath.FromSlash(strings.ReplaceAll(filename, `\`, "/")))
	if name == "." || name == ".." || name == string(filepath.Separator) || name == "" {
		return "", apperrors.Validation("invalid file name", map[string]string{"file": "invalid"})
	}
	abs, err := e.Resolve(joinRel(dir, name))
	if err != nil {
		return "", err
	}

	dst, err := os.Create(abs)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "create file", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "write file", err)
	}
	return e.relative(abs), dst.Close()
}

// OpenFile returns the absolute path of an existing regular file for download.
func (e *Explorer) OpenFile(rel string) (string, error) {
	abs, err := e.existing(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "stat file", err)
	}
	if !info.IsDir() && info.Mode().IsRegular() {
		return abs, nil
	}
	return "", apperrors.NotFound("file")
}

// WriteZip streams the folder rel as a zip archive to w.
func (e *Explorer) WriteZip(w io.Writer, rel string) error {
	abs, err := e.existing(rel)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return apperrors.NotFound("folder")
	}

	zw := zip.NewWriter(w)
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == abs {
			return nil
		}
		name, _ := filepath.Rel(abs, p)
		name = filepath.ToSlash(name)
		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(dst, f)
		return err
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "zip folder", err)
	}
	return zw.Close()
}

// joinRel appends name to dir without cleaning, so ".." in name still counts against the root.
func joinRel(dir, name string) string {
	return strings.TrimRight(dir, `/\`) + "/" + name
}

func (e *Explorer) existing(rel string) (string, error) {
	abs, err := e.Resolve(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); stderrors.Is(err, fs.ErrNotExist) {
		return "", apperrors.NotFound("file or directory")
	} else if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "stat", err)
	}
	return abs, nil
}
