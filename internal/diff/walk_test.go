package diff

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFiles(t *testing.T) {
	original := t.TempDir()
	revised := t.TempDir()

	writeLines(t, filepath.Join(original, "src/test/java/com/foo/BarTest.java"), "class BarTest {}")
	writeLines(t, filepath.Join(original, "src/test/java/com/foo/GoneTest.java"), "class GoneTest {}")
	writeLines(t, filepath.Join(revised, "src/test/java/com/foo/BarTest.java"), "class BarTest {}")
	writeLines(t, filepath.Join(revised, "src/test/java/com/foo/api/ApiTest.java"), "class ApiTest {}")
	writeLines(t, filepath.Join(revised, "src/test/java/.cache/Junk.java"), "junk")
	writeLines(t, filepath.Join(revised, "src/main/java/com/foo/Bar.java"), "class Bar {}")

	files, err := ListFiles("src/test/java", original, revised)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"src/test/java/com/foo/BarTest.java",
		"src/test/java/com/foo/GoneTest.java",
		"src/test/java/com/foo/api/ApiTest.java",
	}, files)
}

func TestListFilesMissingPrefix(t *testing.T) {
	files, err := ListFiles("src/test/java", t.TempDir(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
