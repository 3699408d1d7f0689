package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StorageCheck verifies the database and vector index locations.
type StorageCheck struct {
	dbPath          string
	vectorIndexPath string
}

// NewStorageCheck creates a new storage location check. vectorIndexPath may
// be empty.
func NewStorageCheck(dbPath, vectorIndexPath string) *StorageCheck {
	return &StorageCheck{dbPath: dbPath, vectorIndexPath: vectorIndexPath}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	result.Items = append(result.Items, checkDir("db directory", filepath.Dir(c.dbPath)))
	result.Items = append(result.Items, checkFile("db file", c.dbPath))

	if c.vectorIndexPath != "" {
		result.Items = append(result.Items, checkDir("vector index", c.vectorIndexPath))
	}

	return result
}

func checkDir(label, dir string) CheckItem {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return warn(label, dir+" does not exist (wagl creates it on first write)")
	case err != nil:
		return fail(label, fmt.Sprintf("%s inaccessible: %v", dir, err))
	case !info.IsDir():
		return fail(label, dir+" is not a directory")
	default:
		return pass(label, dir)
	}
}

func checkFile(label, path string) CheckItem {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return warn(label, path+" does not exist yet")
	case err != nil:
		return fail(label, fmt.Sprintf("%s inaccessible: %v", path, err))
	case info.IsDir():
		return fail(label, path+" is a directory")
	default:
		return pass(label, path)
	}
}
