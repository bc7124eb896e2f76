package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_LookupProcessed(t *testing.T) {
	r := NewRegistry(NewHasher())

	r.RegisterProcessed("IMG_1234.jpg", "/photos/2024/IMG_1234.jpg")

	dest, ok := r.LookupProcessed("IMG_1234.jpg")
	if !ok {
		t.Fatal("Expected a hit for the registered name")
	}
	if dest != "/photos/2024/IMG_1234.jpg" {
		t.Errorf("Expected the registered destination, got %s", dest)
	}

	if _, ok := r.LookupProcessed("other.jpg"); ok {
		t.Error("Expected a miss for an unknown name")
	}

	// Any of the given identities may hit
	dest, ok = r.LookupProcessed("other.jpg", "IMG_1234.jpg")
	if !ok || dest != "/photos/2024/IMG_1234.jpg" {
		t.Errorf("Expected the second identity to hit, got %s, %v", dest, ok)
	}

	// Empty identities are ignored, not registered
	r.RegisterProcessed("", "/somewhere")
	if _, ok := r.LookupProcessed(""); ok {
		t.Error("Expected the empty identity to stay unregistered")
	}
}

func TestRegistry_CheckAndRegisterContent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "keepsake_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	a := filepath.Join(tempDir, "a.jpg")
	b := filepath.Join(tempDir, "b.jpg")
	c := filepath.Join(tempDir, "c.jpg")
	writeTestFile(t, a, "identical pixels")
	writeTestFile(t, b, "identical pixels")
	writeTestFile(t, c, "different pixels")

	r := NewRegistry(NewHasher())

	dup, existing, sum, err := r.CheckAndRegisterContent(a)
	if err != nil {
		t.Fatal(err)
	}
	if dup {
		t.Error("Expected first sighting not to be a duplicate")
	}
	if sum == "" {
		t.Error("Expected a fingerprint")
	}
	if existing != "" {
		t.Errorf("Expected no existing path on first sighting, got %s", existing)
	}

	dup, existing, _, err = r.CheckAndRegisterContent(b)
	if err != nil {
		t.Fatal(err)
	}
	if !dup {
		t.Error("Expected identical content to be flagged")
	}
	if existing != a {
		t.Errorf("Expected the first-seen path %s, got %s", a, existing)
	}

	dup, _, _, err = r.CheckAndRegisterContent(c)
	if err != nil {
		t.Fatal(err)
	}
	if dup {
		t.Error("Expected different content to pass")
	}
}

func TestRegistry_CheckAndRegisterContent_MissingFile(t *testing.T) {
	r := NewRegistry(NewHasher())
	if _, _, _, err := r.CheckAndRegisterContent("/nonexistent/file.jpg"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRegistry_BuildFromDestination(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "keepsake_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	lib := filepath.Join(tempDir, "library")
	tagged := filepath.Join(lib, "2024-10-Oct", "2024-10-01_10-06-47-IMG_1234.jpg")
	renamedTag := filepath.Join(lib, "2024-11-Nov", "2024-11-05_09-00-00-IMG_9999.jpg")
	untagged := filepath.Join(lib, "2024-10-Oct", "stray.jpg")
	notMedia := filepath.Join(lib, "notes.txt")
	inReports := filepath.Join(lib, "reports", "leftover.jpg")
	writeTestFile(t, tagged, "one")
	writeTestFile(t, renamedTag, "two")
	writeTestFile(t, untagged, "three")
	writeTestFile(t, notMedia, "four")
	writeTestFile(t, inReports, "five")

	codec := newFakeCodec()
	codec.seed(tagged, map[string]any{"XMP:OriginalFileName": "IMG_1234.jpg"})
	codec.seed(renamedTag, map[string]any{
		"XMP:OriginalFileName":           "IMG_9999.jpg",
		"XMP-keepsake:AlternateFileName": "venice.jpg",
	})
	codec.seed(inReports, map[string]any{"XMP:OriginalFileName": "leftover.jpg"})

	cfg := testConfig("", lib)
	r := NewRegistry(NewHasher())

	count, err := r.BuildFromDestination(lib, codec, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 recognized files, got %d", count)
	}

	if dest, ok := r.LookupProcessed("IMG_1234.jpg"); !ok || dest != tagged {
		t.Errorf("Expected IMG_1234.jpg registered to %s, got %s, %v", tagged, dest, ok)
	}
	if dest, ok := r.LookupProcessed("IMG_9999.jpg"); !ok || dest != renamedTag {
		t.Errorf("Expected IMG_9999.jpg registered, got %s, %v", dest, ok)
	}

	// The alternate name is an identity too
	if _, ok := r.LookupProcessed("venice.jpg"); !ok {
		t.Error("Expected the alternate name registered")
	}

	if _, ok := r.LookupProcessed("stray.jpg"); ok {
		t.Error("Expected untagged files to stay unregistered")
	}
	if _, ok := r.LookupProcessed("leftover.jpg"); ok {
		t.Error("Expected the reports folder to be left out")
	}
}

func TestRegistry_BuildFromDestination_MissingRoot(t *testing.T) {
	r := NewRegistry(NewHasher())
	cfg := testConfig("", "/nonexistent/library")

	count, err := r.BuildFromDestination("/nonexistent/library", newFakeCodec(), cfg, nil)
	if err != nil {
		t.Fatalf("Expected a missing destination to register nothing, got error: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 recognized files, got %d", count)
	}
}
