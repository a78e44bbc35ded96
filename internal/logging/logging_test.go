/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	require.NoError(t, Init("warn", FormatAuto, &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("component", "quota").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "quota", line["component"])
	assert.Equal(t, "shown", line["message"])
}

func TestInit_Console(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	require.NoError(t, Init("debug", FormatConsole, &buf))
	log.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestInit_Errors(t *testing.T) {
	assert.Error(t, Init("loud", FormatJSON, &bytes.Buffer{}))
	assert.Error(t, Init("info", "xml", &bytes.Buffer{}))
}
