package pkg

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill creates file under dir", func(t *testing.T) {
		dir := t.TempDir()

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Remove()

		require.Contains(t, spill.Path(), dir)
		require.FileExists(t, spill.Path())
	})

	t.Run("Len returns correct count", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.Equal(t, uint64(0), spill.Len())

		require.NoError(t, spill.Append(1))
		require.Equal(t, uint64(1), spill.Len())

		require.NoError(t, spill.Append(2))
		require.NoError(t, spill.Append(3))
		require.Equal(t, uint64(3), spill.Len())
	})

	t.Run("Range iterates byte payloads in order", func(t *testing.T) {
		spill, err := NewFileSpill[[]byte](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		expected := [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`), []byte(`{"c":3}`)}
		for _, v := range expected {
			require.NoError(t, spill.Append(v))
		}

		var collected [][]byte
		err = spill.Range(func(_ uint64, item []byte) error {
			collected = append(collected, item)
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, expected, collected)
	})

	t.Run("Range callback error stops iteration", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		for i := 0; i < 3; i++ {
			require.NoError(t, spill.Append(i))
		}

		count := 0
		rangeErr := spill.Range(func(index uint64, _ int) error {
			count++
			if index == 1 {
				return errors.New("stop at index 1")
			}
			return nil
		})

		require.Error(t, rangeErr)
		require.Equal(t, 2, count)
	})

	t.Run("Close keeps data readable and rejects appends", func(t *testing.T) {
		spill, err := NewFileSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())
		require.Error(t, spill.Append("second"))

		var got []string
		require.NoError(t, spill.Range(func(_ uint64, item string) error {
			got = append(got, item)
			return nil
		}))
		require.Equal(t, []string{"first"}, got)
	})

	t.Run("Remove deletes the backing file", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)

		require.NoError(t, spill.Append(1))
		require.NoError(t, spill.Remove())

		_, statErr := os.Stat(spill.Path())
		require.True(t, os.IsNotExist(statErr))
	})
}

// BenchmarkAppend measures the performance of appending items.
func BenchmarkAppend(b *testing.B) {
	spill, err := NewFileSpill[[]byte](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create filespill: %v", err)
	}
	defer spill.Remove()

	payload := []byte(`{"/a.js":{"path":"/a.js"}}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = spill.Append(payload)
	}
}
