package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrintsMatchingLinks(t *testing.T) {
	srv := newFakeStore(t,
		"App_1.0_x64.appx",
		"App_1.0_arm.appx",
		"Deps_2.0_neutral.msixbundle",
	)

	out, err := runCLI(t, "resolve", "https://apps.microsoft.com/detail/9nblggh5fv99",
		"--arch", "x64",
		"--endpoint", srv.URL+"/api/GetFiles",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "App_1.0_x64.appx")
	assert.Contains(t, out, "Deps_2.0_neutral.msixbundle")
	assert.NotContains(t, out, "App_1.0_arm.appx")
	assert.Contains(t, out, "2 of 3 link(s) match x64")
}

func TestResolveAcceptsAppID(t *testing.T) {
	srv := newFakeStore(t, "Terminal_1.18_x64.msixbundle")

	out, err := runCLI(t, "resolve", "windows-terminal",
		"--arch", "x64",
		"--endpoint", srv.URL+"/api/GetFiles",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "resolving Windows Terminal")
	assert.Contains(t, out, "Terminal_1.18_x64.msixbundle")
}

func TestResolveJSONOutput(t *testing.T) {
	srv := newFakeStore(t, "App_1.0_x64.appx")

	out, err := runCLI(t, "resolve", "https://apps.microsoft.com/detail/9nblggh5fv99",
		"--arch", "x64", "--json",
		"--endpoint", srv.URL+"/api/GetFiles",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "App_1.0_x64.appx"`)
	assert.Contains(t, out, `"class": "appx"`)
}

func TestResolveZeroLinksIsNotAnError(t *testing.T) {
	srv := newFakeStore(t)

	out, err := runCLI(t, "resolve", "https://apps.microsoft.com/detail/9nothing",
		"--endpoint", srv.URL+"/api/GetFiles",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "no package links")
}
