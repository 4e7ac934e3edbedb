package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/canonry/canonry/internal/presentation/tui"
)

// RenderMarkdown pretty-prints markdown to w when the terminal supports it.
// Rendering failures degrade to the raw markdown, which stays readable.
func RenderMarkdown(w io.Writer, md string) {
	render := tui.NewRenderer()
	out, err := render(md)
	if err != nil {
		fmt.Fprintln(w, md)
		return
	}
	fmt.Fprint(w, out)
}

// PrintJSON writes v to w as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
