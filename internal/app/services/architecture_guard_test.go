package services

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestAppLayerDependsOnPortsOnly(t *testing.T) {
	t.Parallel()

	forbidden := []string{
		"github.com/fr0stylo/cashwidget/internal/db",
		"github.com/fr0stylo/cashwidget/internal/adapters/",
		"github.com/fr0stylo/cashwidget/internal/wallet",
		"github.com/labstack/echo",
	}

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("resolve caller path")
	}
	appDir := filepath.Clean(filepath.Join(filepath.Dir(thisFile), ".."))

	err := filepath.WalkDir(appDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, token := range forbidden {
			if strings.Contains(string(data), `"`+token) {
				return fmt.Errorf("app layer must not import %s, found in %s", token, path)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scan app layer: %v", err)
	}
}
