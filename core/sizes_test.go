package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCatalogExpectedSizeBytes(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name  string
		model string
		want  int64
	}{
		{"schnell", "schnell", gib(31.4)},
		{"dev", "dev", gib(4.2)},
		{"unknown falls back to default", "mystery-model", DefaultSizeBytes},
		{"empty falls back to default", "", DefaultSizeBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ExpectedSizeBytes(tt.model); got != tt.want {
				t.Errorf("ExpectedSizeBytes(%q) = %d, want %d", tt.model, got, tt.want)
			}
		})
	}
}

func TestCatalogResolve(t *testing.T) {
	c := DefaultCatalog()

	spec, err := c.Resolve("schnell")
	if err != nil {
		t.Fatalf("Resolve(schnell) unexpected error: %v", err)
	}
	if spec.Repo != "black-forest-labs/FLUX.1-schnell" {
		t.Errorf("schnell repo = %q, want black-forest-labs/FLUX.1-schnell", spec.Repo)
	}

	_, err = c.Resolve("mystery-model")
	if err == nil {
		t.Fatal("Resolve(mystery-model) should fail")
	}
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("Resolve error is %T, want *BridgeError", err)
	}
	if bridgeErr.Code != ErrCodeUnknownModel {
		t.Errorf("error code = %q, want %q", bridgeErr.Code, ErrCodeUnknownModel)
	}
}

func TestCatalogModels(t *testing.T) {
	got := DefaultCatalog().Models()
	want := []string{"dev", "schnell"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Models() = %v, want %v", got, want)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		c, err := LoadCatalog("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := c.ExpectedSizeBytes("schnell"); got != gib(31.4) {
			t.Errorf("schnell size = %d, want %d", got, gib(31.4))
		}
	})

	t.Run("file entries override and extend", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.yaml")
		content := []byte(`models:
  - name: schnell
    size: 10GB
  - name: krea
    repo: black-forest-labs/FLUX.1-Krea-dev
    size: 4.5GB
`)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}

		c, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Override keeps the built-in repo but takes the new size
		spec, err := c.Resolve("schnell")
		if err != nil {
			t.Fatalf("Resolve(schnell): %v", err)
		}
		if spec.Repo != "black-forest-labs/FLUX.1-schnell" {
			t.Errorf("override lost built-in repo: %q", spec.Repo)
		}
		if spec.SizeBytes != 10*BytesPerGB {
			t.Errorf("schnell size = %d, want %d", spec.SizeBytes, 10*BytesPerGB)
		}

		// New entry resolves
		spec, err = c.Resolve("krea")
		if err != nil {
			t.Fatalf("Resolve(krea): %v", err)
		}
		if spec.Repo != "black-forest-labs/FLUX.1-Krea-dev" {
			t.Errorf("krea repo = %q", spec.Repo)
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error for missing catalog file")
		}
	})

	t.Run("entry without name errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.yaml")
		if err := os.WriteFile(path, []byte("models:\n  - repo: foo/bar\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Fatal("expected error for nameless entry")
		}
	})

	t.Run("bad size errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.yaml")
		if err := os.WriteFile(path, []byte("models:\n  - name: huge\n    size: lots\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Fatal("expected error for unparseable size")
		}
	})
}
