package netscape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minkvault/mink/internal/vault"
)

const sampleExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>Dev</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/">Go</A>
        <DT><H3>Docs</H3>
        <DL><p>
            <DT><A HREF="https://pkg.go.dev/">pkg.go.dev</A>
        </DL><p>
    </DL><p>
    <DT><A HREF="https://news.ycombinator.com/">Hacker News</A>
</DL>`

func TestParse_NestedFolders(t *testing.T) {
	tree, err := Parse(sampleExport)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	dev := tree[0]
	assert.Equal(t, NodeFolder, dev.Type)
	assert.Equal(t, "Dev", dev.Name)
	// The heading's sibling list holds one bookmark and one subfolder,
	// not a flattened list.
	require.Len(t, dev.Children, 2)

	goBookmark := dev.Children[0]
	assert.Equal(t, NodeBookmark, goBookmark.Type)
	assert.Equal(t, "Go", goBookmark.Title)
	assert.Equal(t, "https://go.dev/", goBookmark.URL)

	docs := dev.Children[1]
	assert.Equal(t, NodeFolder, docs.Type)
	assert.Equal(t, "Docs", docs.Name)
	require.Len(t, docs.Children, 1)
	assert.Equal(t, "pkg.go.dev", docs.Children[0].Title)

	hn := tree[1]
	assert.Equal(t, NodeBookmark, hn.Type)
	assert.Equal(t, "Hacker News", hn.Title)
}

func TestParse_EntityDecoding(t *testing.T) {
	src := `<DL><p>
    <DT><H3>Tools &amp; Tips</H3>
    <DL><p>
        <DT><A HREF="https://example.com/?a=1&amp;b=2">A &lt;b&gt; c &#39;quoted&#39;</A>
    </DL><p>
</DL>`
	tree, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tree, 1)

	folder := tree[0]
	assert.Equal(t, "Tools & Tips", folder.Name)
	require.Len(t, folder.Children, 1)
	assert.Equal(t, "A <b> c 'quoted'", folder.Children[0].Title)
	assert.Equal(t, "https://example.com/?a=1&b=2", folder.Children[0].URL)
}

func TestParse_DiscardsNonBookmarkURLs(t *testing.T) {
	src := `<DL><p>
    <DT><A HREF="javascript:alert(1)">xss</A>
    <DT><A HREF="about:blank">blank</A>
    <DT><A HREF="https://ok.test/">ok</A>
</DL>`
	tree, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "https://ok.test/", tree[0].URL)
}

func TestParse_TitleFallsBackToURL(t *testing.T) {
	src := `<DL><p><DT><A HREF="https://untitled.test/page"></A></DL>`
	tree, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "https://untitled.test/page", tree[0].Title)
}

func TestParse_EmptyFolder(t *testing.T) {
	src := `<DL><p>
    <DT><H3>Empty</H3>
    <DL><p></DL><p>
    <DT><A HREF="https://after.test/">after</A>
</DL>`
	tree, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, NodeFolder, tree[0].Type)
	assert.Empty(t, tree[0].Children)
	assert.Equal(t, "after", tree[1].Title)
}

func TestParse_NoListInSource(t *testing.T) {
	tree, err := Parse("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestParse_TooDeepNesting(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<DL><p>")
	for i := 0; i < maxDepth+2; i++ {
		sb.WriteString("<DT><H3>f</H3><DL><p>")
	}
	_, err := Parse(sb.String())
	require.ErrorIs(t, err, ErrTooDeep)
}

func TestParse_FolderWithoutChildList(t *testing.T) {
	// An H3 immediately followed by another DT: the folder simply has no
	// children and the scan must not swallow the next item.
	src := `<DL><p>
    <DT><H3>Lonely</H3>
    <DT><A HREF="https://next.test/">next</A>
</DL>`
	tree, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Lonely", tree[0].Name)
	assert.Empty(t, tree[0].Children)
	assert.Equal(t, "next", tree[1].Title)
}

func TestExport_RoundTripsThroughParse(t *testing.T) {
	folders := []*vault.Folder{
		{ID: "f1", Name: "Dev"},
		{ID: "f2", ParentID: "f1", Name: "Docs"},
	}
	bookmarks := []*vault.Bookmark{
		{ID: "b1", FolderID: "f1", Title: "Go", URL: "https://go.dev/"},
		{ID: "b2", FolderID: "f2", Title: "pkg", URL: "https://pkg.go.dev/"},
		{ID: "b3", Title: "Root <one>", URL: "https://root.test/?a=1&b=2"},
	}

	out := Export(folders, bookmarks)
	assert.Contains(t, out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>")
	assert.Contains(t, out, "Root &lt;one&gt;")
	assert.Contains(t, out, "https://root.test/?a=1&amp;b=2")

	tree, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, tree, 2, "one folder and one root bookmark")

	dev := tree[0]
	assert.Equal(t, "Dev", dev.Name)
	require.Len(t, dev.Children, 2)
	assert.Equal(t, "Docs", dev.Children[0].Name)
	require.Len(t, dev.Children[0].Children, 1)
	assert.Equal(t, "pkg", dev.Children[0].Children[0].Title)
	assert.Equal(t, "Go", dev.Children[1].Title)

	root := tree[1]
	assert.Equal(t, "Root <one>", root.Title)
	assert.Equal(t, "https://root.test/?a=1&b=2", root.URL)
}
