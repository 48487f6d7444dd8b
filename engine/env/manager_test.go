package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/taskwell/engine/core"
)

func TestManager_Clone(t *testing.T) {
	t.Run("Should isolate child changes from the parent", func(t *testing.T) {
		parent := NewManager(core.EnvMap{"A": "1"})
		child := parent.Clone()
		child.Set("A", "2")
		child.Set("B", "3")

		v, _ := parent.Get("A")
		assert.Equal(t, "1", v)
		_, ok := parent.Get("B")
		assert.False(t, ok)
	})
}

func TestManager_Update(t *testing.T) {
	t.Run("Should overwrite existing keys", func(t *testing.T) {
		m := NewManager(core.EnvMap{"A": "1", "B": "2"})
		require.NoError(t, m.Update(map[string]string{"A": "9", "C": "3"}))
		assert.Equal(t, core.EnvMap{"A": "9", "B": "2", "C": "3"}, m.Vars())
	})
	t.Run("Should overwrite an existing key with an empty string", func(t *testing.T) {
		m := NewManager(core.EnvMap{"A": "1", "B": "2"})
		require.NoError(t, m.Update(map[string]string{"A": ""}))
		assert.Equal(t, core.EnvMap{"A": "", "B": "2"}, m.Vars())
	})
}

func TestManager_LoadFile(t *testing.T) {
	t.Run("Should layer file variables under existing ones", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("A=file\nB=file\n"), 0o644))

		m := NewManager(core.EnvMap{"A": "explicit"})
		require.NoError(t, m.LoadFile(path))

		a, _ := m.Get("A")
		b, _ := m.Get("B")
		assert.Equal(t, "explicit", a)
		assert.Equal(t, "file", b)
	})
	t.Run("Should keep an explicit empty value over a file value", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("A=file\n"), 0o644))

		m := NewManager(core.EnvMap{"A": ""})
		require.NoError(t, m.LoadFile(path))

		a, _ := m.Get("A")
		assert.Equal(t, "", a)
	})
	t.Run("Should ignore missing files", func(t *testing.T) {
		m := NewManager(core.EnvMap{"A": "1"})
		require.NoError(t, m.LoadFile("/does/not/exist/.env"))
		assert.Equal(t, core.EnvMap{"A": "1"}, m.Vars())
	})
	t.Run("Should fail on unreadable file content", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("not valid = = lines\nA"), 0o644))

		m := NewManager(nil)
		assert.Error(t, m.LoadFile(path))
	})
}

func TestManager_Substitute(t *testing.T) {
	m := NewManager(core.EnvMap{"NAME": "world"})

	t.Run("Should expand both reference forms", func(t *testing.T) {
		assert.Equal(t, "hello world", m.Substitute("hello $NAME"))
		assert.Equal(t, "hello world!", m.Substitute("hello ${NAME}!"))
	})
	t.Run("Should expand unknown references to empty", func(t *testing.T) {
		assert.Equal(t, "hello ", m.Substitute("hello $MISSING"))
	})
}

func TestManager_AsSlice(t *testing.T) {
	t.Run("Should render entries deterministically sorted", func(t *testing.T) {
		m := NewManager(core.EnvMap{"B": "2", "A": "1"})
		assert.Equal(t, []string{"A=1", "B=2"}, m.AsSlice())
	})
}
