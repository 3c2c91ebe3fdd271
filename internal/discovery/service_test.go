package discovery_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repoaudit/internal/discovery"
	"github.com/temirov/repoaudit/internal/gitapi"
	"github.com/temirov/repoaudit/internal/runlog"
)

const (
	testOrganizationConstant = "acme"
	testTeamConstant         = "sod-team"
	testApplicationConstant  = "Foo"
)

type stubMetadataClient struct {
	summaries    []gitapi.RepositorySummary
	listError    error
	details      map[string]gitapi.RepositoryDetail
	detailErrors map[string]error
	groups       gitapi.TeamUserList
	teamError    error
	detailDelay  time.Duration

	mutex           sync.Mutex
	requestedDetail []string
	inFlight        atomic.Int32
	maxInFlight     atomic.Int32
}

func (client *stubMetadataClient) ListRepositories(context.Context, string) ([]gitapi.RepositorySummary, error) {
	return client.summaries, client.listError
}

func (client *stubMetadataClient) RepositoryDetail(_ context.Context, _ string, repositoryName string) (gitapi.RepositoryDetail, error) {
	current := client.inFlight.Add(1)
	defer client.inFlight.Add(-1)
	for {
		observed := client.maxInFlight.Load()
		if current <= observed || client.maxInFlight.CompareAndSwap(observed, current) {
			break
		}
	}
	if client.detailDelay > 0 {
		time.Sleep(client.detailDelay)
	}

	client.mutex.Lock()
	client.requestedDetail = append(client.requestedDetail, repositoryName)
	client.mutex.Unlock()

	if detailError, failing := client.detailErrors[repositoryName]; failing {
		return gitapi.RepositoryDetail{}, detailError
	}
	return client.details[repositoryName], nil
}

func (client *stubMetadataClient) TeamMembers(context.Context, string, string) (gitapi.TeamUserList, error) {
	return client.groups, client.teamError
}

func summary(name string) gitapi.RepositorySummary {
	return gitapi.RepositorySummary{Name: name, HTMLURL: "https://github.com/acme/" + name}
}

func detail(audit string, application string) gitapi.RepositoryDetail {
	return gitapi.RepositoryDetail{CustomProperties: map[string]string{"Audit": audit, "Application": application}}
}

type serviceFixture struct {
	service            *discovery.Service
	console            *bytes.Buffer
	repositoryListPath string
	teamUsersPath      string
}

func newServiceFixture(testInstance *testing.T, client discovery.MetadataClient, concurrency int) serviceFixture {
	testInstance.Helper()
	outputDirectory := testInstance.TempDir()
	console := &bytes.Buffer{}

	session, sessionError := runlog.Open(runlog.Options{Category: "internal-api", Console: console})
	require.NoError(testInstance, sessionError)
	testInstance.Cleanup(func() { require.NoError(testInstance, session.Close()) })

	fixture := serviceFixture{
		console:            console,
		repositoryListPath: filepath.Join(outputDirectory, "repos.txt"),
		teamUsersPath:      filepath.Join(outputDirectory, "team_users.txt"),
	}
	service, serviceError := discovery.NewService(client, session, discovery.ServiceConfiguration{
		Concurrency:        concurrency,
		RepositoryListPath: fixture.repositoryListPath,
		TeamUsersPath:      fixture.teamUsersPath,
	})
	require.NoError(testInstance, serviceError)
	fixture.service = service
	return fixture
}

func readFile(testInstance *testing.T, path string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(path)
	require.NoError(testInstance, readError)
	return string(content)
}

func defaultOptions() discovery.Options {
	return discovery.Options{
		OrganizationName: testOrganizationConstant,
		TeamIdentifier:   testTeamConstant,
		ApplicationName:  testApplicationConstant,
	}
}

func TestServiceRunWritesEligibleRepositoriesAndTeamUsers(testInstance *testing.T) {
	client := &stubMetadataClient{
		summaries: []gitapi.RepositorySummary{summary("A"), summary("B"), summary("C")},
		details: map[string]gitapi.RepositoryDetail{
			"A": detail("yes", "Foo"),
			"B": detail("no", "Foo"),
			"C": detail("SOX", "foo"),
		},
		groups: gitapi.TeamUserList{
			{Name: "devs", Members: []gitapi.TeamMember{{Login: "alice"}, {Login: "bob"}}},
		},
	}
	fixture := newServiceFixture(testInstance, client, 0)

	result := fixture.service.Run(context.Background(), defaultOptions())

	require.True(testInstance, result.Repositories.Succeeded())
	require.True(testInstance, result.TeamUsers.Succeeded())
	require.Equal(testInstance, 2, result.Repositories.Entries)
	require.Equal(testInstance, "https://github.com/acme/A.git\nhttps://github.com/acme/C.git\n", readFile(testInstance, fixture.repositoryListPath))
	require.Equal(testInstance, "devs=alice bob\n", readFile(testInstance, fixture.teamUsersPath))
}

func TestServiceRunSkipsFailedAndIncompleteRepositories(testInstance *testing.T) {
	client := &stubMetadataClient{
		summaries: []gitapi.RepositorySummary{
			summary("alpha"),
			summary("broken"),
			{Name: "nameless-url"},
			summary("incomplete"),
			summary("omega"),
		},
		details: map[string]gitapi.RepositoryDetail{
			"alpha":      detail("yes", "Foo"),
			"incomplete": {CustomProperties: map[string]string{"Audit": "yes"}},
			"omega":      detail("sox", "FOO"),
		},
		detailErrors: map[string]error{"broken": gitapi.FetchError{Operation: gitapi.OperationRepositoryDetail, StatusCode: 500}},
	}
	fixture := newServiceFixture(testInstance, client, 2)

	result := fixture.service.Run(context.Background(), defaultOptions())

	require.True(testInstance, result.Repositories.Succeeded())
	require.Equal(testInstance, "https://github.com/acme/alpha.git\nhttps://github.com/acme/omega.git\n", readFile(testInstance, fixture.repositoryListPath))
	require.NotContains(testInstance, client.requestedDetail, "nameless-url")
	require.Contains(testInstance, fixture.console.String(), "[error] failed to fetch repo-details of org acme repo broken")
	require.Contains(testInstance, fixture.console.String(), "[error] repository incomplete of org acme lacks audit properties")
}

func TestServiceRunRepositoryListFailureWritesNothing(testInstance *testing.T) {
	client := &stubMetadataClient{
		listError: gitapi.FetchError{Operation: gitapi.OperationListRepositories, StatusCode: 502},
		groups:    gitapi.TeamUserList{{Name: "devs", Members: []gitapi.TeamMember{{Login: "alice"}}}},
	}
	fixture := newServiceFixture(testInstance, client, 0)

	result := fixture.service.Run(context.Background(), defaultOptions())

	require.False(testInstance, result.Repositories.Succeeded())
	var fetchError gitapi.FetchError
	require.ErrorAs(testInstance, result.Repositories.Err, &fetchError)
	require.NoFileExists(testInstance, fixture.repositoryListPath)

	require.True(testInstance, result.TeamUsers.Succeeded())
	require.Equal(testInstance, "devs=alice\n", readFile(testInstance, fixture.teamUsersPath))
}

func TestServiceRunTeamFailureLeavesRepositoriesIntact(testInstance *testing.T) {
	client := &stubMetadataClient{
		summaries: []gitapi.RepositorySummary{summary("A")},
		details:   map[string]gitapi.RepositoryDetail{"A": detail("yes", "Foo")},
		teamError: errors.New("connection reset"),
	}
	fixture := newServiceFixture(testInstance, client, 0)

	result := fixture.service.Run(context.Background(), defaultOptions())

	require.True(testInstance, result.Repositories.Succeeded())
	require.False(testInstance, result.TeamUsers.Succeeded())
	require.NoFileExists(testInstance, fixture.teamUsersPath)
	require.Contains(testInstance, fixture.console.String(), "[error] failed to fetch users of a team sod-team in org acme")
}

func TestServiceRunEmptyListingWritesEmptyFile(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, &stubMetadataClient{}, 0)

	result := fixture.service.Run(context.Background(), defaultOptions())

	require.True(testInstance, result.Repositories.Succeeded())
	require.Empty(testInstance, readFile(testInstance, fixture.repositoryListPath))
	require.Empty(testInstance, readFile(testInstance, fixture.teamUsersPath))
}

func TestServiceRunBoundsDetailConcurrency(testInstance *testing.T) {
	summaries := make([]gitapi.RepositorySummary, 0, 12)
	details := make(map[string]gitapi.RepositoryDetail, 12)
	for repositoryIndex := 0; repositoryIndex < 12; repositoryIndex++ {
		repositoryName := string(rune('a' + repositoryIndex))
		summaries = append(summaries, summary(repositoryName))
		details[repositoryName] = detail("yes", "Foo")
	}
	client := &stubMetadataClient{summaries: summaries, details: details, detailDelay: 10 * time.Millisecond}
	fixture := newServiceFixture(testInstance, client, 3)

	result := fixture.service.Run(context.Background(), defaultOptions())

	require.True(testInstance, result.Repositories.Succeeded())
	require.Equal(testInstance, 12, result.Repositories.Entries)
	require.LessOrEqual(testInstance, client.maxInFlight.Load(), int32(3))
	require.Len(testInstance, client.requestedDetail, 12)
}

func TestFormatTeamUserLinesKeepsGroupOrder(testInstance *testing.T) {
	lines := discovery.FormatTeamUserLines(gitapi.TeamUserList{
		{Name: "reviewers", Members: []gitapi.TeamMember{{Login: "carol"}}},
		{Name: "devs", Members: []gitapi.TeamMember{{Login: "alice"}, {Login: "bob"}}},
		{Name: "vacant"},
	})
	require.Equal(testInstance, []string{"reviewers=carol", "devs=alice bob", "vacant="}, lines)
}

func TestNewServiceValidatesCollaborators(testInstance *testing.T) {
	_, clientError := discovery.NewService(nil, nil, discovery.ServiceConfiguration{})
	require.ErrorIs(testInstance, clientError, discovery.ErrMetadataClientRequired)

	_, pathError := discovery.NewService(&stubMetadataClient{}, &runlog.Session{}, discovery.ServiceConfiguration{})
	require.ErrorIs(testInstance, pathError, discovery.ErrOutputPathRequired)
}
