package gitapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	repositorySummaryEntityConstant = "repository summary"
	repositoryDetailEntityConstant  = "repository detail"
	teamMemberEntityConstant        = "team member"
	nameFieldConstant               = "name"
	htmlURLFieldConstant            = "html_url"
	customPropertiesFieldConstant   = "custom_properties"
	loginFieldConstant              = "login"
	teamUserListObjectErrorConstant = "team user list must be a JSON object"
	teamGroupKeyErrorConstant       = "team group key must be a string"
	customPropertyPathTemplate      = customPropertiesFieldConstant + ".%s"
)

var (
	errTeamUserListNotObject = errors.New(teamUserListObjectErrorConstant)
	errTeamGroupKeyNotString = errors.New(teamGroupKeyErrorConstant)
)

// Custom property names consulted by audit eligibility.
const (
	AuditPropertyName       = "Audit"
	ApplicationPropertyName = "Application"
)

// RepositorySummary is one entry of the organization repository listing.
type RepositorySummary struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Validate reports the first missing field of the summary.
func (summary RepositorySummary) Validate() error {
	if len(strings.TrimSpace(summary.Name)) == 0 {
		return MissingFieldError{Entity: repositorySummaryEntityConstant, Field: nameFieldConstant}
	}
	if len(strings.TrimSpace(summary.HTMLURL)) == 0 {
		return MissingFieldError{Entity: repositorySummaryEntityConstant, Field: htmlURLFieldConstant}
	}
	return nil
}

// RepositoryDetail carries the custom properties attached to a repository.
type RepositoryDetail struct {
	CustomProperties map[string]string
}

// Property returns the named custom property or a MissingFieldError.
func (detail RepositoryDetail) Property(propertyName string) (string, error) {
	propertyValue, exists := detail.CustomProperties[propertyName]
	if !exists {
		return "", MissingFieldError{Entity: repositoryDetailEntityConstant, Field: fmt.Sprintf(customPropertyPathTemplate, propertyName)}
	}
	return propertyValue, nil
}

type repositoryDetailPayload struct {
	CustomProperties map[string]any `json:"custom_properties"`
}

func (payload repositoryDetailPayload) toDetail() (RepositoryDetail, error) {
	if payload.CustomProperties == nil {
		return RepositoryDetail{}, MissingFieldError{Entity: repositoryDetailEntityConstant, Field: customPropertiesFieldConstant}
	}

	properties := make(map[string]string, len(payload.CustomProperties))
	for propertyName, propertyValue := range payload.CustomProperties {
		switch typedValue := propertyValue.(type) {
		case nil:
			continue
		case string:
			properties[propertyName] = typedValue
		default:
			properties[propertyName] = fmt.Sprint(typedValue)
		}
	}
	return RepositoryDetail{CustomProperties: properties}, nil
}

// TeamMember identifies a user by login.
type TeamMember struct {
	Login string `json:"login"`
}

// TeamGroup is a named subset of the team with its members in service order.
type TeamGroup struct {
	Name    string
	Members []TeamMember
}

// Logins returns the member logins in order.
func (group TeamGroup) Logins() []string {
	logins := make([]string, 0, len(group.Members))
	for _, member := range group.Members {
		logins = append(logins, member.Login)
	}
	return logins
}

// TeamUserList holds the team groups in the order the service returned them.
type TeamUserList []TeamGroup

type teamMemberPayload struct {
	Login *string `json:"login"`
}

// decodeTeamUserList walks the JSON object token by token so group order survives decoding.
func decodeTeamUserList(body []byte) (TeamUserList, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))

	openingToken, tokenError := decoder.Token()
	if tokenError != nil {
		return nil, tokenError
	}
	if delimiter, isDelimiter := openingToken.(json.Delim); !isDelimiter || delimiter != '{' {
		return nil, errTeamUserListNotObject
	}

	var groups TeamUserList
	for decoder.More() {
		keyToken, keyError := decoder.Token()
		if keyError != nil {
			return nil, keyError
		}
		groupName, isString := keyToken.(string)
		if !isString {
			return nil, errTeamGroupKeyNotString
		}

		var memberPayloads []teamMemberPayload
		if decodeError := decoder.Decode(&memberPayloads); decodeError != nil {
			return nil, decodeError
		}

		members := make([]TeamMember, 0, len(memberPayloads))
		for _, memberPayload := range memberPayloads {
			if memberPayload.Login == nil {
				return nil, MissingFieldError{Entity: teamMemberEntityConstant, Field: loginFieldConstant}
			}
			members = append(members, TeamMember{Login: *memberPayload.Login})
		}
		groups = append(groups, TeamGroup{Name: groupName, Members: members})
	}

	if _, closingError := decoder.Token(); closingError != nil && closingError != io.EOF {
		return nil, closingError
	}

	return groups, nil
}
