package generator

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const tocMarker = "<!-- toc -->"

type summaryRow struct {
	Key   string
	Value string
}

// scriptData is the view shared by the install scripts and the README.
type scriptData struct {
	PackageName string
	Description string
	Version     string
	Title       string
	Port        int
	Services    []service
	Directories []string
	Pending     []string
	Summary     []summaryRow
	Files       []string
}

func newScriptData(n *mapping.NestedConfiguration, opts Options) scriptData {
	opts = opts.normalized()
	title := strings.TrimSpace(n.Env.AppTitle)
	if title == "" {
		title = "LibreChat"
	}
	return scriptData{
		PackageName: opts.PackageName,
		Description: opts.Description,
		Version:     opts.Version,
		Title:       title,
		Port:        n.Deploy.Port,
		Services:    services(n),
		Directories: hostDirectories(n),
		Pending:     PendingSecrets(n),
		Summary:     summarize(n),
		Files:       DefaultRegistry().fileNames(),
	}
}

func (r *Registry) fileNames() []string {
	out := make([]string, len(r.generators))
	for i, g := range r.generators {
		out[i] = g.FileName()
	}
	return out
}

func summarize(n *mapping.NestedConfiguration) []summaryRow {
	onOff := func(b bool) string {
		if b {
			return "enabled"
		}
		return "disabled"
	}
	orNone := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "none"
		}
		return s
	}
	custom := make([]string, 0, len(n.Config.Endpoints.Custom))
	for _, e := range n.Config.Endpoints.Custom {
		custom = append(custom, e.Name)
	}
	mcp := make([]string, 0, len(n.Config.MCPServers))
	for name := range n.Config.MCPServers {
		mcp = append(mcp, name)
	}
	sort.Strings(mcp)
	return []summaryRow{
		{"client_domain", orNone(n.Env.DomainClient)},
		{"port", strconv.Itoa(n.Deploy.Port)},
		{"endpoints", orNone(n.Env.Endpoints)},
		{"custom_endpoints", orNone(strings.Join(custom, ", "))},
		{"file_strategy", orNone(n.Config.FileStrategy.String())},
		{"search", onOff(n.Deploy.Meilisearch)},
		{"redis", onOff(n.Deploy.Redis)},
		{"rag_api", onOff(n.Deploy.RAGAPI)},
		{"email_service", orNone(n.Deploy.EmailService)},
		{"social_logins", orNone(strings.Join(n.Config.Registration.SocialLogins, ", "))},
		{"mcp_servers", orNone(strings.Join(mcp, ", "))},
	}
}

var titleCaser = cases.Title(language.English)

// humanize turns "social_logins" into "Social Logins".
func humanize(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return titleCaser.String(s)
}

// shQuote wraps s in single quotes for POSIX shells.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// psQuote wraps s in a PowerShell verbatim string.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// markdownCell keeps a value inside one table cell.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func templateFuncs() template.FuncMap {
	funcMap := sprig.TxtFuncMap()
	funcMap["shQuote"] = shQuote
	funcMap["psQuote"] = psQuote
	funcMap["humanize"] = humanize
	funcMap["cell"] = markdownCell
	return funcMap
}

func mustTemplate(name string) *template.Template {
	return template.Must(template.New(name).
		Option("missingkey=error").
		Funcs(templateFuncs()).
		ParseFS(templateFS, "templates/"+name))
}

// templateGenerator renders one embedded template, optionally post-processing
// the output.
type templateGenerator struct {
	name     ArtifactName
	fileName string
	tmpl     *template.Template
	post     func(string) (string, error)
}

func (g templateGenerator) Name() ArtifactName { return g.name }
func (g templateGenerator) FileName() string   { return g.fileName }

func (g templateGenerator) Generate(n *mapping.NestedConfiguration, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, newScriptData(n, opts)); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", g.fileName, err)
	}
	if g.post == nil {
		return buf.String(), nil
	}
	return g.post(buf.String())
}

func newInstallShGenerator() Generator {
	return templateGenerator{
		name:     ArtifactInstallSh,
		fileName: "install.sh",
		tmpl:     mustTemplate("install.sh.tmpl"),
	}
}

func newInstallPS1Generator() Generator {
	return templateGenerator{
		name:     ArtifactInstallPS1,
		fileName: "install.ps1",
		tmpl:     mustTemplate("install.ps1.tmpl"),
		post:     crlf,
	}
}

func newReadmeGenerator() Generator {
	return templateGenerator{
		name:     ArtifactReadme,
		fileName: "README.md",
		tmpl:     mustTemplate("README.md.tmpl"),
		post:     insertTOC,
	}
}

// crlf uses Windows line endings so the script opens cleanly in Notepad.
func crlf(s string) (string, error) {
	return strings.ReplaceAll(s, "\n", "\r\n"), nil
}

type heading struct {
	Level int
	Text  string
}

// headings lists the headings of a Markdown document in order.
func headings(src []byte) ([]heading, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var out []heading
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := node.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			writeText(&b, c, src)
		}
		out = append(out, heading{Level: h.Level, Text: b.String()})
		return ast.WalkSkipChildren, nil
	})
	return out, err
}

func writeText(b *strings.Builder, node ast.Node, src []byte) {
	if t, ok := node.(*ast.Text); ok {
		b.Write(t.Segment.Value(src))
		return
	}
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		writeText(b, c, src)
	}
}

// insertTOC replaces the marker with a list of the second-level headings.
func insertTOC(doc string) (string, error) {
	hs, err := headings([]byte(doc))
	if err != nil {
		return "", fmt.Errorf("failed to parse README: %w", err)
	}
	var b strings.Builder
	b.WriteString("## Contents\n\n")
	for _, h := range hs {
		if h.Level != 2 {
			continue
		}
		fmt.Fprintf(&b, "- [%s](#%s)\n", h.Text, slug.Make(h.Text))
	}
	return strings.Replace(doc, tocMarker+"\n", b.String(), 1), nil
}
