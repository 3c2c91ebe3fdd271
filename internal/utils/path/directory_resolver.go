package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant      = "~"
	currentDirectoryConstant  = "."
	homeShortcutSlashConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// DirectoryResolver normalizes configured output and log directories.
type DirectoryResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	homeDirectoryOnce     sync.Once
}

// NewDirectoryResolver constructs a resolver using the operating system home lookup.
func NewDirectoryResolver() *DirectoryResolver {
	return NewDirectoryResolverWithProvider(os.UserHomeDir)
}

// NewDirectoryResolverWithProvider constructs a resolver with a custom home directory provider.
func NewDirectoryResolverWithProvider(provider HomeDirectoryProvider) *DirectoryResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &DirectoryResolver{homeDirectoryProvider: provider}
}

// Resolve trims the candidate, expands a leading tilde and cleans the result.
// Blank candidates resolve to fallback.
func (resolver *DirectoryResolver) Resolve(candidate string, fallback string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		trimmed = strings.TrimSpace(fallback)
	}
	if len(trimmed) == 0 {
		return currentDirectoryConstant
	}

	expanded := resolver.expandHome(trimmed)
	return filepath.Clean(expanded)
}

func (resolver *DirectoryResolver) expandHome(candidate string) string {
	if resolver == nil || !strings.HasPrefix(candidate, homeShortcutConstant) {
		return candidate
	}

	homeDirectory := resolver.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidate
	}

	switch {
	case candidate == homeShortcutConstant:
		return homeDirectory
	case strings.HasPrefix(candidate, homeShortcutSlashConstant):
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidate, homeShortcutSlashConstant))
	case strings.HasPrefix(candidate, homeShortcutConstant+string(os.PathSeparator)):
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidate, homeShortcutConstant+string(os.PathSeparator)))
	default:
		return candidate
	}
}

func (resolver *DirectoryResolver) resolveHomeDirectory() string {
	resolver.homeDirectoryOnce.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
