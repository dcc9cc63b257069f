package pkgbuild

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// Archive writes the package directory to a gzipped tarball at tarPath.
// Entries are prefixed with prefix (the delivered directory name) and
// written in sorted order so two builds of identical content produce
// byte-identical file lists.
func Archive(pkgDir, tarPath, prefix string) error {
	var files []string
	err := filepath.WalkDir(pkgDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(pkgDir, p)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk package dir: %w", err)
	}
	sort.Strings(files)

	out, err := os.Create(tarPath)
	if err != nil {
		return fmt.Errorf("failed to create tarball: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		if err := addFile(tw, pkgDir, rel, prefix); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tarball: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return out.Close()
}

func addFile(tw *tar.Writer, pkgDir, rel, prefix string) error {
	full := filepath.Join(pkgDir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to build tar header for %s: %w", rel, err)
	}
	hdr.Name = path.Join(prefix, rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", rel, err)
	}

	f, err := os.Open(filepath.Clean(full))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write %s into tarball: %w", rel, err)
	}
	return nil
}
