package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/schemaforge/internal/schema"
)

func baseSchema() *schema.Schema {
	return &schema.Schema{
		Name: "shop",
		Tables: []schema.Table{
			{
				Name: "users",
				Columns: []schema.Column{
					{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: schema.TypeVarchar, Length: 255, Unique: true},
				},
				Indexes: []schema.Index{
					{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
				},
			},
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
					{Name: "user_id", Type: schema.TypeInteger,
						Reference: &schema.Reference{Table: "users", Column: "id", OnDelete: schema.ActionCascade}},
				},
			},
		},
	}
}

func TestCompareIdenticalSchemas(t *testing.T) {
	s := baseSchema()
	d := Compare(s, s.Clone())
	assert.False(t, d.HasChanges())
}

func TestCompareNilSchemas(t *testing.T) {
	assert.False(t, Compare(nil, nil).HasChanges())

	d := Compare(nil, baseSchema())
	assert.Len(t, d.TablesAdded, 2)

	d = Compare(baseSchema(), nil)
	assert.Len(t, d.TablesRemoved, 2)
}

func TestCompareAddedColumn(t *testing.T) {
	old := baseSchema()
	new := old.Clone()
	users := new.Table("users")
	users.Columns = append(users.Columns, schema.Column{
		Name: "name", Type: schema.TypeVarchar, Length: 100, Nullable: true,
	})

	d := Compare(old, new)
	require.True(t, d.HasChanges())
	require.Len(t, d.TablesModified, 1)

	td := d.TablesModified[0]
	assert.Equal(t, "users", td.TableName)
	require.Len(t, td.ColumnsAdded, 1)
	assert.Equal(t, "name", td.ColumnsAdded[0].Name)
	assert.Empty(t, td.ColumnsRemoved)
	assert.Empty(t, td.ColumnsModified)
}

func TestCompareNameMatchingIsCaseSensitive(t *testing.T) {
	old := baseSchema()
	new := old.Clone()
	new.Table("users").Columns[1].Name = "Email"

	d := Compare(old, new)
	require.Len(t, d.TablesModified, 1)
	td := d.TablesModified[0]

	// A case change is a drop plus an add, not a modification.
	require.Len(t, td.ColumnsAdded, 1)
	require.Len(t, td.ColumnsRemoved, 1)
	assert.Equal(t, "Email", td.ColumnsAdded[0].Name)
	assert.Equal(t, "email", td.ColumnsRemoved[0].Name)
}

func TestCompareColumnChanges(t *testing.T) {
	old := baseSchema()
	new := old.Clone()
	email := new.Table("users").Column("email")
	email.Length = 320
	email.Nullable = true
	email.Unique = false
	email.Default = &schema.Default{Value: "''"}
	email.Comment = "contact address"

	d := Compare(old, new)
	require.Len(t, d.TablesModified, 1)
	require.Len(t, d.TablesModified[0].ColumnsModified, 1)

	cd := d.TablesModified[0].ColumnsModified[0]
	assert.Equal(t, "email", cd.ColumnName)
	require.Len(t, cd.Changes, 5)

	assert.IsType(t, TypeChanged{}, cd.Changes[0])
	assert.IsType(t, NullableChanged{}, cd.Changes[1])
	assert.IsType(t, DefaultChanged{}, cd.Changes[2])
	assert.IsType(t, UniqueChanged{}, cd.Changes[3])
	assert.IsType(t, CommentChanged{}, cd.Changes[4])

	tc := cd.Changes[0].(TypeChanged)
	assert.Equal(t, "type: VARCHAR(255) -> VARCHAR(320)", tc.Describe())
}

func TestCompareReference(t *testing.T) {
	t.Run("target change", func(t *testing.T) {
		old := baseSchema()
		new := old.Clone()
		new.Table("orders").Column("user_id").Reference.Column = "email"

		d := Compare(old, new)
		cd := d.TablesModified[0].ColumnsModified[0]
		require.Len(t, cd.Changes, 1)
		assert.IsType(t, ReferenceChanged{}, cd.Changes[0])
	})

	t.Run("actions change independently of target", func(t *testing.T) {
		old := baseSchema()
		new := old.Clone()
		new.Table("orders").Column("user_id").Reference.OnDelete = schema.ActionRestrict

		d := Compare(old, new)
		cd := d.TablesModified[0].ColumnsModified[0]
		require.Len(t, cd.Changes, 1)
		assert.IsType(t, ReferenceActionsChanged{}, cd.Changes[0])
	})

	t.Run("reference dropped", func(t *testing.T) {
		old := baseSchema()
		new := old.Clone()
		new.Table("orders").Column("user_id").Reference = nil

		d := Compare(old, new)
		cd := d.TablesModified[0].ColumnsModified[0]
		require.Len(t, cd.Changes, 1)
		rc := cd.Changes[0].(ReferenceChanged)
		assert.Nil(t, rc.New)
		require.NotNil(t, rc.Old)
		assert.Equal(t, "users", rc.Old.Table)
	})
}

func TestCompareIndexChanges(t *testing.T) {
	old := baseSchema()
	new := old.Clone()
	idx := &new.Table("users").Indexes[0]
	idx.Columns = []string{"email", "id"}
	idx.Unique = false
	idx.Method = schema.MethodHash
	idx.Where = "email <> ''"

	d := Compare(old, new)
	require.Len(t, d.TablesModified, 1)
	require.Len(t, d.TablesModified[0].IndexesModified, 1)

	id := d.TablesModified[0].IndexesModified[0]
	assert.Equal(t, "idx_users_email", id.IndexName)
	require.Len(t, id.Changes, 4)
	assert.IsType(t, IndexColumnsChanged{}, id.Changes[0])
	assert.IsType(t, IndexMethodChanged{}, id.Changes[1])
	assert.IsType(t, IndexUniqueChanged{}, id.Changes[2])
	assert.IsType(t, IndexPredicateChanged{}, id.Changes[3])
}

func TestCompareAddedAndRemovedIndex(t *testing.T) {
	old := baseSchema()
	new := old.Clone()
	users := new.Table("users")
	users.Indexes = []schema.Index{
		{Name: "idx_users_name", Columns: []string{"name"}},
	}

	d := Compare(old, new)
	td := d.TablesModified[0]
	require.Len(t, td.IndexesAdded, 1)
	require.Len(t, td.IndexesRemoved, 1)
	assert.Equal(t, "idx_users_name", td.IndexesAdded[0].Name)
	assert.Equal(t, "idx_users_email", td.IndexesRemoved[0].Name)
}

func TestCompareDoesNotAliasInputs(t *testing.T) {
	old := baseSchema()
	new := old.Clone()
	new.Tables = new.Tables[:1] // drop orders

	d := Compare(old, new)
	require.Len(t, d.TablesRemoved, 1)

	// Mutating the diff must not reach back into the input schemas.
	d.TablesRemoved[0].Columns[1].Reference.Table = "mutated"
	assert.Equal(t, "users", old.Table("orders").Column("user_id").Reference.Table)
}

func TestCompareOutputOrderIsDeterministic(t *testing.T) {
	old := &schema.Schema{}
	new := &schema.Schema{Tables: []schema.Table{
		{Name: "zebra", Columns: []schema.Column{{Name: "id", Type: schema.TypeInteger}}},
		{Name: "alpha", Columns: []schema.Column{{Name: "id", Type: schema.TypeInteger}}},
		{Name: "middle", Columns: []schema.Column{{Name: "id", Type: schema.TypeInteger}}},
	}}

	for i := 0; i < 10; i++ {
		d := Compare(old, new)
		require.Len(t, d.TablesAdded, 3)
		assert.Equal(t, "zebra", d.TablesAdded[0].Name)
		assert.Equal(t, "alpha", d.TablesAdded[1].Name)
		assert.Equal(t, "middle", d.TablesAdded[2].Name)
	}
}
