package credentials_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/userpanel/internal/adapter/driven/credentials"
)

func TestDecodeYAML_PreservesDocumentOrder(t *testing.T) {
	src := "# quick-switch accounts\nzoe: z-pass\nalice: a-pass\nbob: \"1234\"\n"

	arr, err := credentials.DecodeYAML(strings.NewReader(src))
	require.NoError(t, err)

	users, passwords := collect(arr)
	assert.Equal(t, []string{"zoe", "alice", "bob"}, users)
	assert.Equal(t, []string{"z-pass", "a-pass", "1234"}, passwords)
}

func TestDecodeYAML_EmptyDocument(t *testing.T) {
	arr, err := credentials.DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, arr.Len())
}

func TestDecodeYAML_RejectsSequence(t *testing.T) {
	_, err := credentials.DecodeYAML(strings.NewReader("- alice\n- bob\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping")
}

func TestDecodeYAML_RejectsNestedValue(t *testing.T) {
	_, err := credentials.DecodeYAML(strings.NewReader("alice:\n  password: x\n"))
	assert.Error(t, err)
}

func TestLoadYAML_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("alice: pw1\nbob: pw2\n"), 0o600))

	arr, err := credentials.LoadYAML(path)
	require.NoError(t, err)

	pw, ok := arr.Lookup("bob")
	require.True(t, ok)
	assert.Equal(t, "pw2", pw)
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := credentials.LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
