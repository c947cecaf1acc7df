package profiling

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderDisabled(t *testing.T) {
	r := &Recorder{}
	r.Start("ignored").Stop()

	var buf bytes.Buffer
	r.Summarize(&buf)
	assert.Empty(t, buf.String())
}

func TestRecorderNesting(t *testing.T) {
	r := &Recorder{}
	r.Enable()

	outer := r.Start("client.New")
	r.Start("datapackage.Load").Stop()
	outer.Stop()
	r.Start("connect").Stop()

	var buf bytes.Buffer
	r.Summarize(&buf)
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Contains(t, string(lines[0]), "timing:")
	assert.Contains(t, string(lines[1]), "  - client.New (")
	assert.Contains(t, string(lines[2]), "    - datapackage.Load (")
	assert.Contains(t, string(lines[3]), "  - connect (")
}

func TestCobraProfilerWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")

	p := NewCobraProfiler()
	root := &cobra.Command{Use: "root", RunE: func(*cobra.Command, []string) error { return nil }}
	p.AddFlags(root)
	root.SetArgs([]string{"--cpu-profile", cpu, "--mem-profile", mem})
	require.NoError(t, root.Execute())

	var buf bytes.Buffer
	p.Finish(&buf)
	p.Finish(&buf)

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("CPU profile written")))
	assert.Contains(t, buf.String(), "Memory profile written")
	for _, path := range []string{cpu, mem} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}
