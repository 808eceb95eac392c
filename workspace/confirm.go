package workspace

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptConfirmer asks an operator on Out and reads the answer from In.
// "Y" and "YES" in any case confirm, anything else declines.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(path string) (bool, error) {
	fmt.Fprintf(p.Out, "Directory %q exists, do you want to rewrite it? (Y/N)\n", path)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "Y", "YES":
		return true, nil
	default:
		return false, nil
	}
}
