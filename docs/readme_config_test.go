package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repoaudit/cmd/cli"
	"github.com/temirov/repoaudit/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	snippetFileNameConstant          = "config.yaml"
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	unexpectedToolMessageTemplate    = "unexpected tool section %s"
)

var expectedToolSections = map[string]struct{}{
	"discovery": {},
	"audit":     {},
}

type readmeApplicationConfiguration struct {
	Common map[string]any            `yaml:"common"`
	Tools  map[string]map[string]any `yaml:"tools"`
}

func TestReadmeConfigurationParses(testInstance *testing.T) {
	snippetContent := extractReadmeConfiguration(testInstance)

	var document readmeApplicationConfiguration
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &document))
	require.Len(testInstance, document.Tools, len(expectedToolSections))
	for toolName := range document.Tools {
		_, expected := expectedToolSections[toolName]
		require.Truef(testInstance, expected, unexpectedToolMessageTemplate, toolName)
	}

	snippetPath := filepath.Join(testInstance.TempDir(), snippetFileNameConstant)
	require.NoError(testInstance, os.WriteFile(snippetPath, []byte(snippetContent), 0o600))

	loader := utils.NewConfigurationLoader("config", "yaml", "REPOAUDITDOCS", nil)
	var configuration cli.ApplicationConfiguration
	_, loadError := loader.LoadConfiguration(snippetPath, nil, &configuration)
	require.NoError(testInstance, loadError)

	require.Equal(testInstance, 8, configuration.Tools.Discovery.Concurrency)
	require.Equal(testInstance, time.Second, configuration.Tools.Audit.RequestDelay)
	require.Equal(testInstance, "audits", configuration.Tools.Audit.ReportDirectory)
}

func extractReadmeConfiguration(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	contentBytes, readError := os.ReadFile(filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant))
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : headerIndex+fenceEndRelativeIndex])
}
