package main

import (
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/tomysql/internal/config"
	"benritz/tomysql/internal/convert"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]log.Lvl{
		"debug": log.DEBUG, "INFO": log.INFO, "warn": log.WARN, "error": log.ERROR, "off": log.OFF,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	cfg := &config.Root{
		Source: config.SourceSection{Path: "orders.csv", Delimiter: ";"},
		Target: config.TargetSection{Path: "orders", Table: "Orders", DataBatchSize: 10},
	}
	opts, err := configOptions(cfg)
	require.NoError(t, err)

	c, err := convert.New(opts...)
	require.NoError(t, err)
	assert.Equal(t, "orders.sql", c.TargetPath())

	// Empty config values leave the defaults alone.
	opts, err = configOptions(&config.Root{Source: config.SourceSection{Path: "a.csv"}})
	require.NoError(t, err)
	c, err = convert.New(opts...)
	require.NoError(t, err)
	assert.Equal(t, convert.DefaultTargetPath, c.TargetPath())

	_, err = configOptions(&config.Root{Source: config.SourceSection{Delimiter: ";;"}})
	assert.Error(t, err)
}
