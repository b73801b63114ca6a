package clip

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stub(t *testing.T, native, osc error) {
	t.Helper()
	origNative, origOSC := nativeWriteAll, osc52WriteAll
	nativeWriteAll = func(string) error { return native }
	osc52WriteAll = func(string) error { return osc }
	t.Cleanup(func() {
		nativeWriteAll, osc52WriteAll = origNative, origOSC
	})
}

func TestWriteAllPrefersNative(t *testing.T) {
	stub(t, nil, errors.New("unused"))

	res, err := WriteAll("# Report")
	require.NoError(t, err)
	assert.Equal(t, MethodNative, res.Method)
	assert.Empty(t, res.FilePath)
}

func TestWriteAllFallsBackToOSC52(t *testing.T) {
	stub(t, errors.New("no native clipboard"), nil)

	res, err := WriteAll("# Report")
	require.NoError(t, err)
	assert.Equal(t, MethodOSC52, res.Method)
}

func TestWriteAllFallsBackToTempFile(t *testing.T) {
	stub(t, errors.New("no native clipboard"), errors.New("not a terminal"))

	res, err := WriteAll("# Report\n\nbody")
	require.NoError(t, err)
	require.Equal(t, MethodFile, res.Method)
	require.NotEmpty(t, res.FilePath)
	t.Cleanup(func() { _ = os.Remove(res.FilePath) })

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "# Report\n\nbody", string(data))
	assert.True(t, strings.HasSuffix(res.FilePath, ".md"))
}

func TestOSC52RejectsEmptyAndOversized(t *testing.T) {
	assert.Error(t, writeAllOSC52(""))
	assert.Error(t, writeAllOSC52(strings.Repeat("x", osc52LimitBytes+1)))
}
