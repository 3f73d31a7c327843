package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSource_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"25Nov.xlsx", "24Nov.XLSX", "~$24Nov.xlsx", "notes.txt", "old.xls"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.xlsx"), 0755))

	src := NewLocalSource(dir, nil)
	names, err := src.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"24Nov.XLSX", "25Nov.xlsx"}, names)
	assert.Equal(t, "local:"+dir, src.Descriptor())
}

func TestLocalSource_ListMissingDirectory(t *testing.T) {
	src := NewLocalSource(filepath.Join(t.TempDir(), "absent"), nil)
	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalSource_FetchAndSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	src := NewLocalSource(dir, nil)
	ctx := context.Background()

	require.NoError(t, src.Save(ctx, "26Nov.xlsx", []byte("first")))
	require.NoError(t, src.Save(ctx, "26Nov.xlsx", []byte("second")))

	data, err := src.Fetch(ctx, "26Nov.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalSource_RejectsTraversal(t *testing.T) {
	src := NewLocalSource(t.TempDir(), nil)
	ctx := context.Background()

	for _, name := range []string{"", "..", "../secret.xlsx", "sub/file.xlsx"} {
		_, err := src.Fetch(ctx, name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)
		assert.True(t, errors.Is(src.Save(ctx, name, nil), ErrInvalidName), name)
	}
}

func TestLocalSource_FetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalSource(t.TempDir(), nil).Fetch(ctx, "a.xlsx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanUploadName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "24Nov.xlsx", want: "24Nov.xlsx"},
		{in: `C:\Users\ana\Desktop\24Nov.xlsx`, want: "24Nov.xlsx"},
		{in: "../../etc/25Nov.xlsx", want: "25Nov.xlsx"},
		{in: "report.csv", wantErr: true},
		{in: "~$24Nov.xlsx", wantErr: true},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanUploadName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
