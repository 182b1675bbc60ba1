package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory, with forward slashes.
	RelPath string
	// Key is RelPath without its extension.
	Key string
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// ScanImages walks inputDir and returns every decodable image, sorted by
// RelPath. Hidden directories are skipped, as is the file at exclude (the
// background may live next to the inputs).
func ScanImages(inputDir, exclude string) ([]Source, error) {
	var sources []Source
	absExclude := ""
	if exclude != "" {
		if abs, err := filepath.Abs(exclude); err == nil {
			absExclude = abs
		}
	}

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !imageExtensions[ext] {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && abs == absExclude {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: relPath,
			Key:     strings.TrimSuffix(relPath, filepath.Ext(relPath)),
		})
		return nil
	})

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelPath < sources[j].RelPath })
	return sources, err
}

// OutputStems returns the output path, without extension, for each source.
// Sources whose Key is shared with another source (a.png and a.jpg) keep
// their full RelPath instead, giving a.png.<ext> and a.jpg.<ext>. Keys are
// compared case-insensitively. A stem that still collides is returned as "".
func OutputStems(sources []Source) []string {
	byKey := make(map[string]int, len(sources))
	for _, src := range sources {
		byKey[strings.ToLower(src.Key)]++
	}
	stems := make([]string, len(sources))
	seen := make(map[string]int, len(sources))
	for i, src := range sources {
		stems[i] = src.Key
		if byKey[strings.ToLower(src.Key)] > 1 {
			stems[i] = src.RelPath
		}
		seen[strings.ToLower(stems[i])]++
	}
	for i, stem := range stems {
		if seen[strings.ToLower(stem)] > 1 {
			stems[i] = ""
		}
	}
	return stems
}
