package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/kredible/internal/types"
)

//go:embed templates
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

type invitationView struct {
	InvitationData
	ExpiryDays    int
	SupportLink   string
	DashboardLink string
}

type submissionView struct {
	RecruiterName  string
	CandidateName  string
	PositionTitle  string
	Profiles       []profileLink
	AdditionalInfo string
	DashboardLink  string
}

type profileLink struct {
	Label string
	URL   string
}

type testView struct {
	SentAt string
	From   string
	To     string
}

func render(t *htmltemplate.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderText(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// profileLinks lists the candidate's submitted profiles in a fixed order.
func profileLinks(d *types.CandidateData) []profileLink {
	var links []profileLink
	if d.GithubUsername != "" {
		links = append(links, profileLink{Label: "GitHub", URL: "https://github.com/" + d.GithubUsername})
	}
	if d.LinkedinURL != "" {
		links = append(links, profileLink{Label: "LinkedIn", URL: d.LinkedinURL})
	}
	if d.StackoverflowURL != "" {
		links = append(links, profileLink{Label: "Stack Overflow", URL: d.StackoverflowURL})
	}
	if d.PortfolioURL != "" {
		links = append(links, profileLink{Label: "Portfolio", URL: d.PortfolioURL})
	}
	for _, p := range d.AdditionalProfiles {
		links = append(links, profileLink{Label: "Profile", URL: p})
	}
	return links
}

// HTMLToText derives a plain-text alternative from an HTML email body.
// Block elements become line breaks, list items are bulleted and link
// targets are kept next to their text.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("head, script, style").Remove()

	var b strings.Builder
	writeText(&b, doc.Find("body"))
	return cleanLines(b.String()), nil
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, n *goquery.Selection) {
		switch goquery.NodeName(n) {
		case "#text":
			b.WriteString(collapseSpace(n.Text()))
		case "br":
			b.WriteString("\n")
		case "li":
			b.WriteString("\n- ")
			writeText(b, n)
		case "a":
			writeText(b, n)
			if href, ok := n.Attr("href"); ok && href != strings.TrimSpace(n.Text()) {
				b.WriteString(" (" + href + ")")
			}
		case "p", "div", "h1", "h2", "h3", "h4", "ul", "ol", "table", "tr":
			b.WriteString("\n")
			writeText(b, n)
			b.WriteString("\n")
		default:
			writeText(b, n)
		}
	})
}

// collapseSpace squeezes runs of whitespace to one space, keeping a single
// leading or trailing space when the original had one.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(strings.Fields(s), " ")
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' {
		out += " "
	}
	return out
}

// cleanLines trims every line and collapses runs of blank lines.
func cleanLines(text string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n")) + "\n"
}
