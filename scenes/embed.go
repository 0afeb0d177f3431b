package scenes

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed data/scenes.yaml data/scripts/*.tengo
var dataFS embed.FS

// Assets resolves manifest and script files. A copy under Dir wins over the
// embedded one so edits show up without a rebuild.
type Assets struct {
	Dir string
}

func (a Assets) Read(name string) ([]byte, error) {
	clean := cleanDataPath(name)
	if a.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(a.Dir, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return fs.ReadFile(dataFS, path.Join("data", clean))
}

func (a Assets) ReadScript(name string) ([]byte, error) {
	clean := cleanDataPath(name)
	if after, ok := strings.CutPrefix(clean, "scripts/"); ok {
		clean = after
	}
	return a.Read(path.Join("scripts", clean))
}

// WatchDirs lists the on-disk directories a Watcher should observe.
func (a Assets) WatchDirs() []string {
	if a.Dir == "" {
		return nil
	}
	dirs := []string{a.Dir}
	scripts := filepath.Join(a.Dir, "scripts")
	if info, err := os.Stat(scripts); err == nil && info.IsDir() {
		dirs = append(dirs, scripts)
	}
	return dirs
}

func cleanDataPath(p string) string {
	if p == "" {
		return ""
	}
	s := path.Clean(filepath.ToSlash(p))
	if after, ok := strings.CutPrefix(s, "data/"); ok {
		s = after
	}
	return s
}
