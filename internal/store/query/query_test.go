package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc() map[string]any {
	return map[string]any{
		"id":           "u1",
		"partitionKey": "users",
		"email":        "John.Doe@Example.com",
		"firstName":    "John",
		"isActive":     true,
		"age":          float64(42),
		"address":      map[string]any{"city": "Rosario"},
		"nickname":     nil,
	}
}

func match(t *testing.T, text string, params map[string]any) bool {
	t.Helper()
	st, err := Parse(text)
	require.NoError(t, err, text)
	b, err := st.Bind(params)
	require.NoError(t, err, text)
	return b.Match(doc())
}

func TestParse_SelectAll(t *testing.T) {
	st, err := Parse("SELECT * FROM c")
	require.NoError(t, err)
	assert.Equal(t, "c", st.Alias)
	assert.Nil(t, st.Where)
	assert.True(t, match(t, "select * from c", nil))
}

func TestMatch_Comparisons(t *testing.T) {
	cases := []struct {
		q    string
		want bool
	}{
		{"SELECT * FROM c WHERE c.firstName = 'John'", true},
		{"SELECT * FROM c WHERE c.firstName = \"Jane\"", false},
		{"SELECT * FROM c WHERE c.firstName != 'Jane'", true},
		{"SELECT * FROM c WHERE c.firstName <> 'John'", false},
		{"SELECT * FROM c WHERE c.isActive = true", true},
		{"SELECT * FROM c WHERE c.isActive = false", false},
		{"SELECT * FROM c WHERE c.age > 40", true},
		{"SELECT * FROM c WHERE c.age >= 42 AND c.age <= 42", true},
		{"SELECT * FROM c WHERE c.age < 10", false},
		{"SELECT * FROM c WHERE c.address.city = 'Rosario'", true},
		{"SELECT * FROM c WHERE c.nickname = null", true},
		{"SELECT * FROM c WHERE c.missing = null", false},
		{"SELECT * FROM c WHERE c.missing != 'x'", false},
		{"SELECT * FROM c WHERE NOT c.missing = 'x'", true},
		{"SELECT * FROM c WHERE c.age = '42'", false},
		{"SELECT * FROM c WHERE c.firstName > 10", false},
		{"SELECT * FROM c WHERE LOWER(c.email) = 'john.doe@example.com'", true},
		{"SELECT * FROM c WHERE UPPER(c.firstName) = 'JOHN'", true},
		{"SELECT * FROM c WHERE LOWER(c.age) = '42'", false},
		{"SELECT * FROM c WHERE c.firstName = 'X' OR (c.isActive = true AND c.age > 1)", true},
		{"SELECT * FROM c WHERE NOT (c.firstName = 'John')", false},
		{"SELECT * FROM c WHERE firstName = 'John'", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, match(t, tc.q, nil), tc.q)
	}
}

func TestBind_Params(t *testing.T) {
	q := "SELECT * FROM c WHERE LOWER(c.email) = @email AND c.partitionKey = @pk AND c.age = @age"
	assert.True(t, match(t, q, map[string]any{"email": "john.doe@example.com", "pk": "users", "age": 42}))
	assert.True(t, match(t, q, map[string]any{"@email": "john.doe@example.com", "@pk": "users", "age": int64(42)}))
	assert.False(t, match(t, q, map[string]any{"email": "other@example.com", "pk": "users", "age": 42}))
}

func TestBind_MissingParam(t *testing.T) {
	st, err := Parse("SELECT * FROM c WHERE c.email = @email")
	require.NoError(t, err)
	_, err = st.Bind(map[string]any{"other": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestParse_Invalid(t *testing.T) {
	bad := []string{
		"",
		"SELECT id FROM c",
		"SELECT * c",
		"SELECT * FROM c WHERE",
		"SELECT * FROM c WHERE c.a = 'unterminated",
		"SELECT * FROM c WHERE c.a ! 1",
		"SELECT * FROM c WHERE (c.a = 1",
		"SELECT * FROM c WHERE c = 1",
		"SELECT * FROM c WHERE c.a = 1 extra",
		"SELECT * FROM c WHERE c.a = @",
	}
	for _, q := range bad {
		_, err := Parse(q)
		require.Error(t, err, q)
		assert.True(t, errors.Is(err, ErrInvalidQuery), q)
	}
}

func TestStatement_Params(t *testing.T) {
	st := MustParse("SELECT * FROM c WHERE c.a = @x OR c.b = @y OR c.c = @x")
	assert.Equal(t, []string{"x", "y"}, st.Params())
}

func TestMatchJSON(t *testing.T) {
	b, err := MustParse("SELECT * FROM c WHERE c.isActive = true").Bind(nil)
	require.NoError(t, err)

	ok, err := b.MatchJSON([]byte(`{"isActive":true}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.MatchJSON([]byte(`{"isActive":false}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.MatchJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestSQL(t *testing.T) {
	b, err := MustParse("SELECT * FROM c WHERE LOWER(c.email) = @email AND NOT c.isActive = false").
		Bind(map[string]any{"email": "a@b.c"})
	require.NoError(t, err)

	cond, args, err := b.SQL("doc", 2)
	require.NoError(t, err)
	assert.Contains(t, cond, "lower(doc #>> $2::text[])")
	assert.Contains(t, cond, "$3::jsonb")
	assert.Contains(t, cond, "(doc #> $4::text[])")
	assert.Contains(t, cond, "NOT")
	require.Len(t, args, 4)
	assert.Equal(t, []string{"email"}, args[0])
	assert.Equal(t, `"a@b.c"`, string(args[1].(json.RawMessage)))
	assert.Equal(t, `false`, string(args[3].(json.RawMessage)))

	all, _ := MustParse("SELECT * FROM c").Bind(nil)
	cond, args, err = all.SQL("doc", 1)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", cond)
	assert.Empty(t, args)
}
