package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestRoot_Score(t *testing.T) {
	out, err := run(t, "--candidate", "0,0:10,0", "--query", "1,1:9,1")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestRoot_Unreachable(t *testing.T) {
	out, err := run(t, "-c", "0,0:10,0", "-q", "9,1:1,1")
	require.NoError(t, err)
	assert.Equal(t, "unreachable", out)
}

func TestRoot_BadInput(t *testing.T) {
	_, err := run(t, "--candidate", "0,0", "--query", "1,1:9,1")
	assert.Error(t, err)

	_, err = run(t, "--candidate", "0,x:1,1", "--query", "1,1:9,1")
	assert.Error(t, err)

	_, err = run(t, "--candidate", "NaN,0:1,1", "--query", "1,1:9,1")
	assert.Error(t, err)

	_, err = run(t, "--query", "1,1:9,1")
	assert.Error(t, err)
}

func TestNear(t *testing.T) {
	out, err := run(t, "near", "--a", "3.1579,101.7116", "--b", "3.1579,101.7116")
	require.NoError(t, err)
	assert.Equal(t, "true", out)

	out, err = run(t, "near", "--a", "3.1579,101.7116", "--b", "3.1180,101.6767", "--threshold", "100")
	require.NoError(t, err)
	assert.Equal(t, "false", out)
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(" 3.5 , 101.25 ")
	require.NoError(t, err)
	assert.Equal(t, 3.5, p.X)
	assert.Equal(t, 101.25, p.Y)
}
