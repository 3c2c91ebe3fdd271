package discovery

import (
	"strings"

	"github.com/temirov/repoaudit/internal/gitapi"
)

var auditRequiredValues = map[string]struct{}{
	"yes": {},
	"sox": {},
}

// IsAuditRequired reports whether the repository is flagged for audit (Audit is yes or sox)
// and belongs to applicationName. Both comparisons ignore case. A repository lacking either
// property yields a gitapi.MissingFieldError.
func IsAuditRequired(detail gitapi.RepositoryDetail, applicationName string) (bool, error) {
	auditValue, auditError := detail.Property(gitapi.AuditPropertyName)
	if auditError != nil {
		return false, auditError
	}
	applicationValue, applicationError := detail.Property(gitapi.ApplicationPropertyName)
	if applicationError != nil {
		return false, applicationError
	}

	if _, flagged := auditRequiredValues[strings.ToLower(auditValue)]; !flagged {
		return false, nil
	}
	return strings.EqualFold(applicationValue, applicationName), nil
}
