package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestResolveRemotePathNormalizesBackslashesAndTrailingSlash(t *testing.T) {
	require.Equal(t, "C:/exports/out", resolveRemotePath(`C:\exports\out\`))
	require.Equal(t, "/exports/out", resolveRemotePath("/exports/out/"))
	require.Equal(t, "/", resolveRemotePath("/"))
}

func TestLocalCopyDeliversBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b\n1,2\n"), 0o644))

	dest := filepath.Join(dir, "nested", "dest.csv")
	svc := NewLocalCopy(zerolog.Nop())
	err := svc.Deliver(context.Background(), src, Destination{FinalPath: dest})
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n", string(got))
}
