package outputs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	lineTerminatorConstant       = "\n"
	outputDirectoryPermissions   = 0o755
	outputFilePermissions        = 0o644
	lineFileCreateErrorTemplate  = "unable to create %s: %w"
	lineFileWriteErrorTemplate   = "unable to write %s: %w"
	lineFileReadErrorTemplate    = "unable to read %s: %w"
	outputDirectoryErrorTemplate = "unable to prepare directory %s: %w"
)

// WriteLines replaces the file at path with one line per entry, each terminated
// by a newline. An empty slice produces an empty file.
func WriteLines(path string, lines []string) error {
	if mkdirError := os.MkdirAll(filepath.Dir(path), outputDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(outputDirectoryErrorTemplate, filepath.Dir(path), mkdirError)
	}

	outputFile, createError := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermissions)
	if createError != nil {
		return fmt.Errorf(lineFileCreateErrorTemplate, path, createError)
	}

	writer := bufio.NewWriter(outputFile)
	for _, line := range lines {
		if _, writeError := writer.WriteString(line + lineTerminatorConstant); writeError != nil {
			_ = outputFile.Close()
			return fmt.Errorf(lineFileWriteErrorTemplate, path, writeError)
		}
	}
	if flushError := writer.Flush(); flushError != nil {
		_ = outputFile.Close()
		return fmt.Errorf(lineFileWriteErrorTemplate, path, flushError)
	}
	if closeError := outputFile.Close(); closeError != nil {
		return fmt.Errorf(lineFileWriteErrorTemplate, path, closeError)
	}
	return nil
}

// ReadLines returns the trimmed, non-blank lines of the file at path.
func ReadLines(path string) ([]string, error) {
	inputFile, openError := os.Open(path)
	if openError != nil {
		return nil, fmt.Errorf(lineFileReadErrorTemplate, path, openError)
	}
	defer inputFile.Close()

	var lines []string
	scanner := bufio.NewScanner(inputFile)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if len(trimmedLine) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf(lineFileReadErrorTemplate, path, scanError)
	}
	return lines, nil
}
