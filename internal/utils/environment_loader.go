package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	environmentFileLoadErrorTemplateConstant = "unable to load environment file %s: %w"
)

// EnvironmentFileLoader populates the process environment from dotenv files without overriding existing values.
type EnvironmentFileLoader struct {
	statFile func(path string) (fs.FileInfo, error)
}

// NewEnvironmentFileLoader constructs an EnvironmentFileLoader backed by the operating system.
func NewEnvironmentFileLoader() *EnvironmentFileLoader {
	return &EnvironmentFileLoader{statFile: os.Stat}
}

// Load reads the dotenv file when present. Missing files are not an error; the boolean reports whether a file was applied.
func (loader *EnvironmentFileLoader) Load(environmentFilePath string) (bool, error) {
	trimmedPath := strings.TrimSpace(environmentFilePath)
	if len(trimmedPath) == 0 {
		return false, nil
	}

	statFile := loader.statFile
	if statFile == nil {
		statFile = os.Stat
	}

	if _, statError := statFile(trimmedPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(environmentFileLoadErrorTemplateConstant, trimmedPath, statError)
	}

	if loadError := godotenv.Load(trimmedPath); loadError != nil {
		return false, fmt.Errorf(environmentFileLoadErrorTemplateConstant, trimmedPath, loadError)
	}

	return true, nil
}
