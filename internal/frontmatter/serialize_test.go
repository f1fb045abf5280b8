package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_SortedAndStable(t *testing.T) {
	fields := map[string]any{
		"title": "Hello",
		"draft": true,
		"date":  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"tags":  []string{"go", "blog"},
	}
	out, err := SerializeYAML(fields, "\n")
	require.NoError(t, err)
	require.Equal(t, "date: 2020-01-01\ndraft: true\ntags: [go, blog]\ntitle: Hello\n", string(out))

	again, err := SerializeYAML(fields, "\n")
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestSerializeYAML_CRLF(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"a": "1", "b": 2}, "\r\n")
	require.NoError(t, err)
	require.Equal(t, "a: \"1\"\r\nb: 2\r\n", string(out))
}

func TestRender_ParsesBack(t *testing.T) {
	doc, err := Render(map[string]any{"title": "Hello", "slug": "hello"}, []byte("Body\n"))
	require.NoError(t, err)

	block, err := Split(doc)
	require.NoError(t, err)
	require.True(t, block.Present)
	require.Equal(t, "Body\n", string(block.Body))

	fields, err := ParseYAML(block.Raw)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
}
