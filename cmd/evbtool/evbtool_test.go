package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagago/host/internal/evb"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func compileIntro(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intro.evb")
	out, err := execute(t, "compile", filepath.Join("testdata", "intro.yaml"), path)
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+" (3 records, 121 bytes)\n", out)
	return path
}

func TestDump_Text(t *testing.T) {
	path := compileIntro(t)
	out, err := execute(t, "dump", path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dump_text", []byte(out))
}

func TestDump_YAMLMatchesSource(t *testing.T) {
	path := compileIntro(t)
	out, err := execute(t, "dump", "--format", "yaml", path)
	require.NoError(t, err)

	fromDump, err := evb.ParseYAML([]byte(out))
	require.NoError(t, err)
	fromSource, err := evb.LoadYAML(filepath.Join("testdata", "intro.yaml"))
	require.NoError(t, err)
	assert.Equal(t, evb.Doc(fromSource), evb.Doc(fromDump))
}

func TestDump_BadFormat(t *testing.T) {
	_, err := execute(t, "dump", "--format", "json", "x.evb")
	assert.ErrorContains(t, err, "invalid format")
}

func TestValidate(t *testing.T) {
	good := compileIntro(t)
	raw, err := os.ReadFile(good)
	require.NoError(t, err)
	bad := filepath.Join(t.TempDir(), "bad.evb")
	require.NoError(t, os.WriteFile(bad, raw[:40], 0o644))

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Equal(t, "ok   "+good+" (3 records)\n", out)

	out, err = execute(t, "validate", good, bad)
	assert.ErrorContains(t, err, "1 of 2 tracks failed")
	assert.Contains(t, out, "FAIL "+bad)
}

func TestCompile_RejectsBadDoc(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(in, []byte("records:\n  - at: 1\n    scripted: {type: toolong, flag: 0}\n"), 0o644))
	_, err := execute(t, "compile", in, filepath.Join(dir, "out.evb"))
	assert.ErrorContains(t, err, "longer than 4 bytes")
	assert.NoFileExists(t, filepath.Join(dir, "out.evb"))
}
