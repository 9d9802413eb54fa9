package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"ingest", "normalize", "export", "serve", "status"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "logigo", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_DBFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("db")
	require.NotNil(t, flag, "root command should have --db flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestIngestCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "limit", "no-rescan"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), "ingest should have --%s", name)
	}
	assert.Equal(t, "0", ingestCmd.Flags().Lookup("limit").DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"out", "origin", "destination", "transport-type"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), "export should have --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
