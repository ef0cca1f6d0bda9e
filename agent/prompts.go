package agent

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an autonomous web agent. You complete tasks by
driving a browser and processing downloaded files through the tools provided.

Rules:
- Call exactly one tool per turn, or reply with plain text to give your final
  answer when the task is complete.
- While browsing, a screenshot of the current page and a condensed DOM
  summary are supplied each turn. Base your actions on them.
- After a file has been downloaded, page context is no longer supplied.
  Switch to the file tools (pdf_extract_text, pdf_extract_images,
  ocr_image_to_text, save_image, write_text) and work on the downloaded
  files listed for you.
- Tool failures are reported back to you. Read the error and adjust; do not
  repeat a failing call unchanged.
- Give the final answer only when you have the information the task asks for.`

func localFilesBlock(files []string) string {
	var b strings.Builder
	b.WriteString("The session is now processing local files. Browser context is no longer available.\n")
	b.WriteString("Downloaded files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("Use the file tools on these paths, or reply with your final answer.")
	return b.String()
}

func webContextBlock(domSummary string) string {
	if domSummary == "" {
		return "Current page screenshot attached. No DOM summary is available this turn."
	}
	return "Current page screenshot attached. Condensed DOM summary:\n" + domSummary
}

func downloadNotice(path string) string {
	return fmt.Sprintf("File downloaded successfully to %q. The session has switched to "+
		"local file processing: use the file tools on the downloaded files. "+
		"Page screenshots and DOM summaries are no longer relevant and will not be supplied.", path)
}

func pageMissNotice(page, totalPages int) string {
	if totalPages > 0 {
		alt := 1
		if page == alt {
			alt = 2
		}
		return fmt.Sprintf("Nothing was found on page %d, but the document has %d pages in total. "+
			"This does not mean the document lacks the content: try other pages (for example page %d), "+
			"or omit the page filter to scan all %d pages.", page, totalPages, alt, totalPages)
	}
	return fmt.Sprintf("Nothing was found on page %d. This does not mean the document lacks the "+
		"content: try other pages, or omit the page filter to scan the whole document.", page)
}

// toolResultText renders an execution outcome for the model, appending the
// round's system notice so the next decision can see it.
func toolResultText(rec RoundRecord) string {
	var b strings.Builder
	out := rec.Outcome
	switch {
	case out == nil:
		b.WriteString("Tool was not executed.")
	case out.IsError():
		fmt.Fprintf(&b, "Tool %s failed (%s): %s", out.Name, out.ErrorKind, out.Summary)
	default:
		fmt.Fprintf(&b, "Tool %s succeeded: %s", out.Name, out.Summary)
		if out.Path != "" {
			fmt.Fprintf(&b, "\nSaved to: %s", out.Path)
		}
		if out.TotalPages > 0 {
			fmt.Fprintf(&b, "\nTotal pages: %d", out.TotalPages)
		}
		if len(out.Payload) > 0 {
			fmt.Fprintf(&b, "\n%s", out.Payload)
		}
	}
	if rec.SystemNotice != "" {
		fmt.Fprintf(&b, "\n\n[System notice] %s", rec.SystemNotice)
	}
	return b.String()
}
