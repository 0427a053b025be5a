package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiresBuildSubcommand(t *testing.T) {
	root := newRootCmd()

	build, _, err := root.Find([]string{"build"})
	require.NoError(t, err)
	assert.Equal(t, "build", build.Name())

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "emberc.toml", flag.DefValue)
}
