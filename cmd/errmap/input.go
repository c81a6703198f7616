package main

import (
	"fmt"
	"io"
	"os"

	"github.com/learnercorpus/errmap/internal/annotation"
)

// readExport decodes the export at path, or stdin when path is "-".
func readExport(path string) ([]annotation.Task, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	tasks, err := annotation.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}
