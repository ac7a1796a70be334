package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() *Schema {
	return &Schema{
		Name: "shop",
		Tables: []Table{
			{
				Name: "users",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: TypeVarchar, Length: 255, Unique: true},
				},
				Indexes: []Index{
					{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
				},
			},
			{
				Name: "orders",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, PrimaryKey: true},
					{Name: "user_id", Type: TypeInteger, Nullable: true,
						Reference: &Reference{Table: "users", Column: "id", OnDelete: ActionCascade}},
				},
			},
		},
	}
}

func TestLookupsAreCaseInsensitive(t *testing.T) {
	s := sampleSchema()

	require.NotNil(t, s.Table("USERS"))
	assert.Equal(t, "users", s.Table("Users").Name)
	assert.Nil(t, s.Table("missing"))

	users := s.Table("users")
	require.NotNil(t, users.Column("EMAIL"))
	assert.Nil(t, users.Column("missing"))
	require.NotNil(t, users.Index("IDX_USERS_EMAIL"))
}

func TestPrimaryKeyColumns(t *testing.T) {
	s := sampleSchema()
	assert.Equal(t, []string{"id"}, s.Table("users").PrimaryKeyColumns())

	composite := Table{Columns: []Column{
		{Name: "order_id", Type: TypeInteger, PrimaryKey: true},
		{Name: "product_id", Type: TypeInteger, PrimaryKey: true},
		{Name: "qty", Type: TypeInteger},
	}}
	assert.Equal(t, []string{"order_id", "product_id"}, composite.PrimaryKeyColumns())
}

func TestAutoIncrementColumn(t *testing.T) {
	s := sampleSchema()
	col := s.Table("users").AutoIncrementColumn()
	require.NotNil(t, col)
	assert.Equal(t, "id", col.Name)
	assert.Nil(t, s.Table("orders").AutoIncrementColumn())
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleSchema()
	c := s.Clone()

	require.Equal(t, s, c)

	c.Table("orders").Column("user_id").Reference.Table = "accounts"
	c.Table("users").Indexes[0].Columns[0] = "name"
	c.Table("users").Columns[0].Name = "pk"

	assert.Equal(t, "users", s.Table("orders").Column("user_id").Reference.Table)
	assert.Equal(t, "email", s.Table("users").Indexes[0].Columns[0])
	assert.Equal(t, "id", s.Table("users").Columns[0].Name)
}

func TestCloneNil(t *testing.T) {
	var s *Schema
	assert.Nil(t, s.Clone())
}
