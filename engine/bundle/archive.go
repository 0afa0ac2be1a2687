package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"
)

// archiveEpoch is stamped on every entry so archives are byte-stable.
var archiveEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ArchiveName is the download file name for pkg.
func ArchiveName(pkg *Package) string {
	return pkg.Name + ".zip"
}

// WriteArchive writes pkg as a zip with every file under a directory named
// after the package. Install scripts are marked executable.
func WriteArchive(w io.Writer, pkg *Package) error {
	zw := zip.NewWriter(w)
	for _, name := range pkg.FileNames() {
		hdr := &zip.FileHeader{
			Name:     path.Join(pkg.Name, name),
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		}
		mode := fs.FileMode(0o644)
		if path.Ext(name) == ".sh" {
			mode = 0o755
		}
		hdr.SetMode(mode)
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := io.WriteString(fw, pkg.Files[name]); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// Archive returns pkg as zip bytes.
func Archive(pkg *Package) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, pkg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
