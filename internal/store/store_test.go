package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/schemaforge/internal/schema"
)

func testSchema(name string) *schema.Schema {
	return &schema.Schema{
		Name: name,
		Tables: []schema.Table{{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, AutoIncrement: true},
				{Name: "email", Type: schema.TypeVarchar, Length: 255, Unique: true},
			},
		}},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "versions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveAndLoad(t *testing.T) {
	st := openTestStore(t)

	id, err := st.Save(testSchema("shop"), "v1", "initial")
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	v, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", v.Tag)
	assert.Equal(t, "initial", v.Description)
	assert.False(t, v.CreatedAt.IsZero())
	require.NotNil(t, v.Schema)
	assert.Equal(t, testSchema("shop"), v.Schema)
}

func TestLoadTagReturnsNewest(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Save(testSchema("first"), "prod", "")
	require.NoError(t, err)
	_, err = st.Save(testSchema("second"), "prod", "")
	require.NoError(t, err)

	v, err := st.LoadTag("prod")
	require.NoError(t, err)
	assert.Equal(t, "second", v.Schema.Name)
}

func TestLoadMissingVersion(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Load(99)
	assert.ErrorContains(t, err, "version not found")

	_, err = st.LoadTag("ghost")
	assert.ErrorContains(t, err, "version not found")
}

func TestListNewestFirst(t *testing.T) {
	st := openTestStore(t)

	first, err := st.Save(testSchema("a"), "v1", "")
	require.NoError(t, err)
	second, err := st.Save(testSchema("b"), "v2", "")
	require.NoError(t, err)

	versions, err := st.List()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, second, versions[0].ID)
	assert.Equal(t, first, versions[1].ID)

	// Listing omits the schema payload.
	assert.Nil(t, versions[0].Schema)
}
