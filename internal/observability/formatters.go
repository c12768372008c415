// Package observability provides formatted output utilities for the kredible CLI.
package observability

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/schemas"
	"github.com/jonathan/kredible/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
	now func() time.Time
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, now: time.Now}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// displayStatus reports "expired" for pending records past their expiry even
// though storage still says pending.
func (p *Printer) displayStatus(r *types.RecruiterRequest) string {
	if r.IsExpired(p.now()) {
		return string(types.StatusExpired)
	}
	return string(r.Status)
}

// PrintRequests outputs a summary of stored recruiter requests, newest last.
func (p *Printer) PrintRequests(requests []*types.RecruiterRequest) {
	if len(requests) == 0 {
		p.printBox("RECRUITER REQUESTS", "No requests stored")
		return
	}

	counts := map[string]int{}
	for _, r := range requests {
		counts[p.displayStatus(r)]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d  (pending %d, completed %d, expired %d)\n\n",
		len(requests), counts["pending"], counts["completed"], counts["expired"]))

	start := max(0, len(requests)-maxItemsToShow)
	if start > 0 {
		sb.WriteString(fmt.Sprintf("... %d older requests not shown\n\n", start))
	}
	for i := start; i < len(requests); i++ {
		r := requests[i]
		sb.WriteString(fmt.Sprintf("• %s <%s>\n", r.CandidateName, r.CandidateEmail))
		sb.WriteString(fmt.Sprintf("  %s at %s, for %s\n", r.RecruiterName(), r.Company, r.PositionTitle))
		sb.WriteString(fmt.Sprintf("  [%s] created %s\n", p.displayStatus(r), r.CreatedAt.UTC().Format("2006-01-02 15:04")))
		if i < len(requests)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RECRUITER REQUESTS", sb.String())
}

// PrintRequest outputs one request in full, including submitted profile data.
func (p *Printer) PrintRequest(r *types.RecruiterRequest) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", p.displayStatus(r)))
	sb.WriteString(fmt.Sprintf("Recruiter: %s <%s>\n", r.RecruiterName(), r.Email))
	sb.WriteString(fmt.Sprintf("Company:   %s\n", r.Company))
	sb.WriteString(fmt.Sprintf("Candidate: %s <%s>\n", r.CandidateName, r.CandidateEmail))
	sb.WriteString(fmt.Sprintf("Position:  %s\n", r.PositionTitle))
	sb.WriteString(fmt.Sprintf("Expires:   %s\n", types.FormatISO(r.ExpiresAt)))

	if cd := r.CandidateData; cd != nil {
		sb.WriteString("\nProfiles:\n")
		if cd.GithubUsername != "" {
			sb.WriteString(fmt.Sprintf("  • GitHub: %s\n", cd.GithubUsername))
		}
		for _, link := range []struct{ label, url string }{
			{"LinkedIn", cd.LinkedinURL},
			{"Stack Overflow", cd.StackoverflowURL},
			{"Portfolio", cd.PortfolioURL},
		} {
			if link.url != "" {
				sb.WriteString(fmt.Sprintf("  • %s: %s\n", link.label, link.url))
			}
		}
		if n := len(cd.AdditionalProfiles); n > 0 {
			sb.WriteString(fmt.Sprintf("  • %d additional profile(s)\n", n))
		}
		sb.WriteString(fmt.Sprintf("Submitted: %s\n", types.FormatISO(cd.SubmittedAt)))
	}

	p.printBox("REQUEST "+truncate(r.CandidateName, 40), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEmailReceipt outputs the provider response for a sent message.
func (p *Printer) PrintEmailReceipt(to string, receipt *email.Receipt) {
	if receipt == nil {
		return
	}
	content := fmt.Sprintf("To:         %s\nStatus:     %d\nMessage ID: %s", to, receipt.StatusCode, receipt.MessageID)
	p.printBox("✅ TEST EMAIL SENT", content)
}

// PrintMirrorCheck outputs the result of validating a mirror file.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintMirrorCheck(path string, err error) {
	if err == nil {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ MIRROR FILE IS VALID")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File: %s\n\n", path))

	var verr *schemas.ValidationError
	if errors.As(err, &verr) {
		sb.WriteString(fmt.Sprintf("Found %d problems:\n\n", len(verr.Errors)))
		for i, fe := range verr.Errors {
			sb.WriteString(fmt.Sprintf("⚠ %s\n", fe.Field))
			sb.WriteString(fmt.Sprintf("  %s\n", fe.Message))
			if i < len(verr.Errors)-1 {
				sb.WriteString("\n")
			}
		}
	} else {
		sb.WriteString(err.Error())
	}

	p.printBox("MIRROR FILE PROBLEMS", strings.TrimSuffix(sb.String(), "\n"))
}
