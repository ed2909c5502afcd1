package nativelib

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const stampFile = ".stamp"

// Fingerprint hashes the contents of the given files and directory
// trees. Paths that don't exist are skipped. The result only depends
// on file names relative to each root and file contents.
func Fingerprint(paths []string) (string, error) {
	h := sha256.New()
	for _, root := range paths {
		st, err := os.Stat(root)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "root %v\n", filepath.Base(root))
		if !st.IsDir() {
			if err := hashFile(h, root, filepath.Base(root)); err != nil {
				return "", err
			}
			continue
		}
		var files []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		slices.Sort(files)
		for _, path := range files {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return "", err
			}
			if err := hashFile(h, path, filepath.ToSlash(rel)); err != nil {
				return "", err
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "file %v %v\n", name, st.Size())
	_, err = io.Copy(w, f)
	return err
}

func readStamp(dir string) string {
	b, err := os.ReadFile(filepath.Join(dir, stampFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func writeStamp(dir, fingerprint string) error {
	return os.WriteFile(filepath.Join(dir, stampFile), []byte(fingerprint+"\n"), 0o666)
}
