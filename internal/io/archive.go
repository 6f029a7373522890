package ioutils

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// ExtractTarGz unpacks a gzip-compressed tar archive into destDir.
//
// Regular files and directories are extracted; symlinks and other entry
// types are skipped.
func ExtractTarGz(ctx context.Context, archivePath, destDir string) (err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, gz.Close()) }()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

// ExtractZip unpacks a zip archive into destDir.
func ExtractZip(ctx context.Context, archivePath, destDir string) (err error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, zr.Close()) }()

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(destDir, zf.Name)
		if err != nil {
			return err
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := extractZipFile(zf, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(zf *zip.File, target string) (err error) {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rc.Close()) }()

	mode := zf.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	return writeFile(target, rc, mode)
}

func writeFile(target string, r io.Reader, mode os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	_, err = io.Copy(out, r)
	return err
}

// safeJoin joins name onto destDir and rejects paths escaping destDir.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}
