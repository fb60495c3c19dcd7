// Copyright © 2017 Mesosphere Inc. <http://mesosphere.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcos/pipe-cutter/config"
	"github.com/dcos/pipe-cutter/cutter"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	viper.Reset()
	bindFlags()
	defaultConfig = &config.Config{}
	cfgFile = ""
	t.Cleanup(func() {
		viper.Reset()
		bindFlags()
		defaultConfig = &config.Config{}
		cfgFile = ""
	})
}

func Test_initConfig(t *testing.T) {
	resetConfig(t)
	cfgFile = filepath.Join("testdata", "pipe-cutter-config.yaml")

	initConfig()

	expected := &config.Config{
		FlagSeconds:     10,
		FlagBytes:       300,
		FlagTail:        "/var/log/nginx/access.log",
		FlagVerbose:     true,
		FlagMetricsFile: "/var/lib/node_exporter/pipe-cutter.prom",
		SecondsSet:      true,
		BytesSet:        true,
	}

	assert.Equal(t, expected, defaultConfig)
}

func Test_initConfig_env(t *testing.T) {
	resetConfig(t)
	t.Setenv("PIPE_CUTTER_BYTES", "0")
	t.Setenv("PIPE_CUTTER_METRICS_FILE", "metrics.prom")

	initConfig()

	assert.True(t, defaultConfig.BytesSet)
	assert.False(t, defaultConfig.SecondsSet)
	assert.Equal(t, uint64(0), defaultConfig.FlagBytes)
	assert.Equal(t, "metrics.prom", defaultConfig.FlagMetricsFile)
}

func Test_initConfig_flags(t *testing.T) {
	resetConfig(t)
	require.NoError(t, RootCmd.Flags().Set("seconds", "3"))
	defer func() {
		RootCmd.Flags().Lookup("seconds").Changed = false
		RootCmd.Flags().Set("seconds", "0")
	}()

	initConfig()

	assert.True(t, defaultConfig.SecondsSet)
	assert.False(t, defaultConfig.BytesSet)
	assert.Equal(t, uint64(3), defaultConfig.FlagSeconds)
}

func Test_sessionFromConfig(t *testing.T) {
	s := sessionFromConfig(&config.Config{FlagBytes: 5, BytesSet: true, FlagSeconds: 7, SecondsSet: true, FlagTail: "app.log"})
	assert.Equal(t, cutter.Session{
		ByteLimit: cutter.Bytes(5),
		TimeLimit: cutter.Seconds(7),
		Mode:      cutter.FollowTail,
	}, s)
}

type untouchable struct {
	t *testing.T
}

func (u untouchable) Read([]byte) (int, error) {
	u.t.Error("source must not be read")
	return 0, nil
}

func (u untouchable) Write([]byte) (int, error) {
	u.t.Error("sink must not be written")
	return 0, nil
}

func Test_runCut_noLimit(t *testing.T) {
	u := untouchable{t}
	assert.Equal(t, exitConfig, runCut(&config.Config{FlagTail: "app.log"}, u, u))
}

func Test_runCut_bytesFromStdin(t *testing.T) {
	out := &bytes.Buffer{}
	code := runCut(&config.Config{FlagBytes: 10, BytesSet: true}, strings.NewReader("abcdefghijklmno"), out)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "abcdefghij", out.String())
}

func Test_runCut_stdinEndOfStream(t *testing.T) {
	out := &bytes.Buffer{}
	code := runCut(&config.Config{FlagBytes: 100, BytesSet: true}, strings.NewReader("short"), out)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "short", out.String())
}

func Test_runCut_tailWithoutAppends(t *testing.T) {
	dir, err := ioutil.TempDir("", "pipe-cutter")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "app.log")
	require.NoError(t, ioutil.WriteFile(path, []byte("old line\n"), 0644))

	out := &bytes.Buffer{}
	start := time.Now()
	code := runCut(&config.Config{FlagSeconds: 1, SecondsSet: true, FlagTail: path}, untouchable{t}, out)
	elapsed := time.Since(start)

	assert.Equal(t, exitOK, code)
	assert.Empty(t, out.String())
	assert.True(t, elapsed >= time.Second, "stopped after %s", elapsed)
	assert.True(t, elapsed < 2*time.Second, "stopped after %s", elapsed)
}

func Test_runCut_tailForwardsAppends(t *testing.T) {
	dir, err := ioutil.TempDir("", "pipe-cutter")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "app.log")
	require.NoError(t, ioutil.WriteFile(path, []byte("old line\n"), 0644))

	go func() {
		time.Sleep(300 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		defer f.Close()
		f.WriteString("new line\n")
	}()

	out := &bytes.Buffer{}
	code := runCut(&config.Config{FlagSeconds: 5, SecondsSet: true, FlagBytes: 4, BytesSet: true, FlagTail: path}, untouchable{t}, out)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "new line\n", out.String())
}

func Test_runCut_missingTailFile(t *testing.T) {
	out := &bytes.Buffer{}
	code := runCut(&config.Config{FlagSeconds: 1, SecondsSet: true, FlagTail: filepath.Join("testdata", "missing.log")}, untouchable{t}, out)

	assert.Equal(t, exitIO, code)
	assert.Empty(t, out.String())
}

func Test_runCut_metricsFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "pipe-cutter")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	metricsFile := filepath.Join(dir, "pipe-cutter.prom")
	out := &bytes.Buffer{}
	code := runCut(&config.Config{FlagBytes: 10, BytesSet: true, FlagMetricsFile: metricsFile}, strings.NewReader("abcdefghijklmno"), out)
	require.Equal(t, exitOK, code)

	raw, err := ioutil.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pipe_cutter_forwarded_bytes_total 10")
	assert.Contains(t, string(raw), "pipe_cutter_read_bytes_total 15")
	assert.Contains(t, string(raw), `pipe_cutter_read_outcomes_total{outcome="data"} 1`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, os.ErrClosed
}

func Test_runCut_writeError(t *testing.T) {
	code := runCut(&config.Config{FlagBytes: 10, BytesSet: true}, strings.NewReader("abc"), failingWriter{})
	assert.Equal(t, exitIO, code)
}

func Test_sessionFromConfig_hugeSeconds(t *testing.T) {
	s := sessionFromConfig(&config.Config{FlagSeconds: 1e10, SecondsSet: true})
	require.NotNil(t, s.TimeLimit)
	assert.True(t, *s.TimeLimit > 0)
	assert.NoError(t, s.Validate())
}

func Test_runCut_metricsFileOnWriteError(t *testing.T) {
	dir, err := ioutil.TempDir("", "pipe-cutter")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	metricsFile := filepath.Join(dir, "pipe-cutter.prom")
	code := runCut(&config.Config{FlagBytes: 10, BytesSet: true, FlagMetricsFile: metricsFile}, strings.NewReader("abc"), failingWriter{})
	require.Equal(t, exitIO, code)

	raw, err := ioutil.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pipe_cutter_read_bytes_total 3")
	assert.Contains(t, string(raw), "pipe_cutter_forwarded_bytes_total 0")
}

func TestRootCmd_badFlagNotPrinted(t *testing.T) {
	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetErr(out)
	RootCmd.SetArgs([]string{"--no-such-flag"})
	defer func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	}()

	err := RootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag: --no-such-flag")
	assert.NotContains(t, out.String(), "unknown flag")
}
