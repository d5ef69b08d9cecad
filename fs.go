package texture2c

import (
	"io"
	"path/filepath"

	"github.com/rs/xid"
	"github.com/spf13/afero"
)

// writeFile writes name via a hidden temporary file in the same directory
// so an existing file is only replaced once fn has succeeded.
func writeFile(fs afero.Fs, name string, fn func(w io.Writer) error) (err error) {
	tmp := filepath.Join(filepath.Dir(name), "."+xid.New().String())

	f, err := fs.Create(tmp)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = fs.Remove(tmp)
		}
	}()

	if err = fn(f); err != nil {
		_ = f.Close()
		return err
	}

	if err = f.Close(); err != nil {
		return err
	}

	return fs.Rename(tmp, name)
}
