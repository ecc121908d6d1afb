package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/hashit/canon"
	"xdao.co/hashit/digest"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "hashit.yaml", `
algorithm: sha256
output_encoding: base64
sort_arrays: true
include_primitive_types: true
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	opts := cfg.Options()
	require.Equal(t, "sha256", opts.Algorithm)
	require.Equal(t, digest.DefaultInputEncoding, opts.InputEncoding)
	require.Equal(t, "base64", opts.OutputEncoding)
	require.True(t, opts.SortArrays)
	require.True(t, opts.IncludePrimitiveTypes)
	require.False(t, opts.IncludeConstructorNames)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "hashit.json", `{"algorithm":"sha3-256","include_constructor_names":true}`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "sha3-256", cfg.Algorithm)
	require.True(t, cfg.IncludeConstructorNames)
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeFile(t, "empty.yaml", "{}\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	opts := cfg.Options()
	require.Equal(t, digest.DefaultAlgorithm, opts.Algorithm)
	require.Equal(t, digest.DefaultOutputEncoding, opts.OutputEncoding)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("algorithm: md5\nsort_array: true\n"))
	require.Error(t, err)
	require.True(t, canon.IsKind(err, canon.KindConfiguration))
	require.Equal(t, "HASHIT-CONF-004", canon.RuleID(err))
}

func TestParse_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := Parse([]byte("algorithm: crc32\n"))
	require.ErrorIs(t, err, canon.ErrConfiguration)
	require.Equal(t, "HASHIT-CONF-001", canon.RuleID(err))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("")
	require.ErrorIs(t, err, canon.ErrConfiguration)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshal_RoundTrip(t *testing.T) {
	want := Config{Algorithm: "sha512", OutputEncoding: "base58", SortArrays: true}
	b, err := want.Marshal()
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, want, FromOptions(digest.Options{
		Options:        canon.Options{SortArrays: true},
		Algorithm:      "sha512",
		OutputEncoding: "base58",
	}))
}
