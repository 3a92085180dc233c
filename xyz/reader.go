package xyz

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-terraintiles/tile"
)

// Reader implements tile.Reader for tiles stored as individual files.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// NewReader creates a new Reader for the given file pattern (e.g. "/home/user/tiles/{z}/{x}/{y}.png").
func NewReader(filePattern string) (*Reader, error) {
	if err := ValidatePattern(filePattern); err != nil {
		return nil, err
	}

	regexPattern := regexp.QuoteMeta(filepath.Clean(filePattern))
	for _, name := range []string{"x", "y", "z"} {
		regexPattern = strings.Replace(regexPattern, `\{`+name+`\}`, `(?P<`+name+`>\d+)`, 1)
	}
	pathRegex, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	path0 := FormatPattern(filePattern, tile.ID{X: 0, Y: 0, Z: 0})
	path1 := FormatPattern(filePattern, tile.ID{X: 1, Y: 1, Z: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}

	return &Reader{filePattern: filePattern, rootDir: path0, pathRegexp: pathRegex}, nil
}

// ReadTile returns an empty slice for tiles without a file.
func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	tileData, err := os.ReadFile(FormatPattern(r.filePattern, tileID))
	if errors.Is(err, fs.ErrNotExist) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

// VisitTiles walks the pattern's root directory. Files not matching the
// pattern are skipped.
func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	if _, err := os.Stat(r.rootDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(r.rootDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil
		}

		var coords [3]uint32
		for i, name := range []string{"x", "y", "z"} {
			v, err := strconv.ParseUint(matches[r.pathRegexp.SubexpIndex(name)], 10, 32)
			if err != nil {
				return fmt.Errorf("%s: %w", filePath, err)
			}
			coords[i] = uint32(v)
		}

		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(tile.ID{X: coords[0], Y: coords[1], Z: coords[2]}, tileData)
	})
}
