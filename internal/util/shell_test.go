// SPDX-License-Identifier: Apache-2.0

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArgForShell(t *testing.T) {
	t.Run("PlainArg", func(t *testing.T) {
		assert.Equal(t, "'docker'", QuoteArgForShell("docker"))
	})

	t.Run("ArgWithSpaces", func(t *testing.T) {
		assert.Equal(t, "'a b c'", QuoteArgForShell("a b c"))
	})

	t.Run("ArgWithSingleQuote", func(t *testing.T) {
		assert.Equal(t, `'it'\''s'`, QuoteArgForShell("it's"))
	})

	t.Run("TildePrefixStaysExpandable", func(t *testing.T) {
		assert.Equal(t, "~/'crm-bot'", QuoteArgForShell("~/crm-bot"))
	})

	t.Run("TildePrefixWithQuote", func(t *testing.T) {
		assert.Equal(t, `~/'my'\''dir'`, QuoteArgForShell("~/my'dir"))
	})

	t.Run("EmptyArg", func(t *testing.T) {
		assert.Equal(t, "''", QuoteArgForShell(""))
	})
}

func TestFormatEnvPrefix(t *testing.T) {
	t.Run("SinglePair", func(t *testing.T) {
		prefix := FormatEnvPrefix([]string{"PYTHONPATH=/srv/app"})
		assert.Equal(t, "PYTHONPATH='/srv/app' ", prefix)
	})

	t.Run("MultiplePairs", func(t *testing.T) {
		prefix := FormatEnvPrefix([]string{
			"TEST_DATABASE_URL=postgresql://u:p@db/test",
			"PYTHONPATH=/srv/app",
		})
		assert.Equal(t, "TEST_DATABASE_URL='postgresql://u:p@db/test' PYTHONPATH='/srv/app' ", prefix)
	})

	t.Run("ValueWithQuoteIsEscaped", func(t *testing.T) {
		prefix := FormatEnvPrefix([]string{"GREETING=it's"})
		assert.Equal(t, `GREETING='it'\''s' `, prefix)
	})

	t.Run("MalformedPairsDropped", func(t *testing.T) {
		prefix := FormatEnvPrefix([]string{"NOEQUALS", "=novalue", "OK=1"})
		assert.Equal(t, "OK='1' ", prefix)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", FormatEnvPrefix(nil))
	})
}
