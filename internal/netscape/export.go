package netscape

import (
	"strings"

	"github.com/minkvault/mink/internal/vault"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Export renders decrypted folders and bookmarks as a Netscape bookmark file.
// Folders are rendered depth-first with their child folders before their
// bookmarks; bookmarks without a folder end up at the root level.
func Export(folders []*vault.Folder, bookmarks []*vault.Bookmark) string {
	childFolders := make(map[string][]*vault.Folder)
	for _, f := range folders {
		childFolders[f.ParentID] = append(childFolders[f.ParentID], f)
	}
	folderBookmarks := make(map[string][]*vault.Bookmark)
	for _, b := range bookmarks {
		folderBookmarks[b.FolderID] = append(folderBookmarks[b.FolderID], b)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	sb.WriteString("<!-- This is an automatically generated file.\n")
	sb.WriteString("     It will be read and overwritten.\n")
	sb.WriteString("     DO NOT EDIT! -->\n")
	sb.WriteString(`<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">` + "\n")
	sb.WriteString("<TITLE>Bookmarks</TITLE>\n")
	sb.WriteString("<H1>Bookmarks</H1>\n")
	sb.WriteString("<DL><p>\n")
	renderFolder(&sb, "", 1, childFolders, folderBookmarks)
	sb.WriteString("</DL>\n")
	return sb.String()
}

func renderFolder(sb *strings.Builder, folderID string, indent int, childFolders map[string][]*vault.Folder, folderBookmarks map[string][]*vault.Bookmark) {
	pad := strings.Repeat("    ", indent)

	for _, f := range childFolders[folderID] {
		sb.WriteString(pad + "<DT><H3>" + htmlEscaper.Replace(f.Name) + "</H3>\n")
		sb.WriteString(pad + "<DL><p>\n")
		renderFolder(sb, f.ID, indent+1, childFolders, folderBookmarks)
		sb.WriteString(pad + "</DL><p>\n")
	}

	for _, b := range folderBookmarks[folderID] {
		sb.WriteString(pad + `<DT><A HREF="` + htmlEscaper.Replace(b.URL) + `">` + htmlEscaper.Replace(b.Title) + "</A>\n")
	}
}
