// go-csncp
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-csncp.
//
// go-csncp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-csncp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-csncp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

//go:build linux

package system

import (
	"os"
	"path/filepath"
	"testing"

	csncp "github.com/ZaparooProject/go-csncp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSysfs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"wake_lock", "wake_unlock"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o600))
	}
	return dir
}

func readAttr(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestSysfsWakeLock(t *testing.T) {
	t.Parallel()

	dir := fakeSysfs(t)
	w, err := New("ranging", WithSysfsDir(dir))
	require.NoError(t, err)
	assert.Equal(t, "ranging", w.Name())

	require.NoError(t, w.Acquire())
	assert.True(t, w.Held())
	assert.Equal(t, "ranging", readAttr(t, dir, "wake_lock"))
	assert.Empty(t, readAttr(t, dir, "wake_unlock"))

	require.NoError(t, w.Release())
	assert.False(t, w.Held())
	assert.Equal(t, "ranging", readAttr(t, dir, "wake_unlock"))
}

func TestSysfsWakeLock_DefaultName(t *testing.T) {
	t.Parallel()

	w, err := New("", WithSysfsDir(fakeSysfs(t)))
	require.NoError(t, err)
	assert.Equal(t, DefaultName, w.Name())
}

func TestSysfsWakeLock_InvalidName(t *testing.T) {
	t.Parallel()

	_, err := New("two words", WithSysfsDir(fakeSysfs(t)))
	require.Error(t, err)
}

func TestSysfsWakeLock_Missing(t *testing.T) {
	t.Parallel()

	_, err := New("ranging", WithSysfsDir(t.TempDir()))
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSysfsWakeLock_Misuse(t *testing.T) {
	t.Parallel()

	w, err := New("ranging", WithSysfsDir(fakeSysfs(t)))
	require.NoError(t, err)

	require.ErrorIs(t, w.Release(), csncp.ErrWakeLockMisuse)
	require.NoError(t, w.Acquire())
	require.ErrorIs(t, w.Acquire(), csncp.ErrWakeLockMisuse)
}

func TestSysfsWakeLock_CloseReleases(t *testing.T) {
	t.Parallel()

	dir := fakeSysfs(t)
	w, err := New("ranging", WithSysfsDir(dir))
	require.NoError(t, err)
	require.NoError(t, w.Acquire())

	require.NoError(t, w.Close())
	assert.False(t, w.Held())
	assert.Equal(t, "ranging", readAttr(t, dir, "wake_unlock"))
}

func TestSysfsWakeLock_AcquireFailureKeepsSerializerIdle(t *testing.T) {
	t.Parallel()

	dir := fakeSysfs(t)
	w, err := New("ranging", WithSysfsDir(dir))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "wake_lock")))

	s, err := csncp.NewSerializer(csncp.NewMockTransport(), csncp.WithWakeLock(w))
	require.NoError(t, err)

	err = s.BeginTransfer(1, []byte{1, 2, 3})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, s.Busy())
	assert.False(t, w.Held())
}
