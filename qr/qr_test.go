// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package qr

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGDataURL(t *testing.T) {
	url, err := PNG{}.DataURL("http://scanvote.test/polls/123/vote")
	require.NoError(t, err)

	payload, ok := strings.CutPrefix(url, "data:image/png;base64,")
	require.True(t, ok, "missing data URL prefix")

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestPNGCustomSize(t *testing.T) {
	url, err := PNG{Size: 128}.DataURL("hello")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestPNGEmptyText(t *testing.T) {
	_, err := PNG{}.DataURL("")
	assert.Error(t, err)
}
