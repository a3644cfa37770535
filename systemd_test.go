package main_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crabcups "gregoryjjb/crabcups"
)

func TestSystemdServiceFile(t *testing.T) {
	var b strings.Builder
	err := crabcups.SystemdServiceFile(&b, crabcups.CrabcupsServiceParams{
		BinaryPath: "/opt/crabcups",
		User:       "crab",
	})
	require.NoError(t, err)

	unit := b.String()
	assert.Contains(t, unit, "User=crab\n")
	assert.Contains(t, unit, "ExecStart=/opt/crabcups serve\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target")
}

func TestSystemdServiceFileDefaultsBinary(t *testing.T) {
	var b strings.Builder
	require.NoError(t, crabcups.SystemdServiceFile(&b, crabcups.CrabcupsServiceParams{User: "crab"}))
	assert.NotContains(t, b.String(), "ExecStart= serve")
}
