package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"brokerage/pkg/client"
	httputil "brokerage/pkg/http"
)

const (
	DefaultHealthCheckTimeout = 30 * time.Second
)

// TestEnv points the integration suite at a running hold service and its Mongo store.
type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv() *TestEnv {
	serverPort := getEnv("TEST_SERVER_PORT", "8080")
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    getEnv("TEST_SERVER_URL", fmt.Sprintf("http://localhost:%s", serverPort)),
	}
}

func (e *TestEnv) Setup(t *testing.T) *MongoHelper {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanHolds(t)

	probe := client.NewHttpClient(e.ServerURL)
	ctx := t.Context()
	if err := probe.WaitForHealthy(ctx, DefaultHealthCheckTimeout); err != nil {
		t.Skipf("hold service not reachable at %s: %v", e.ServerURL, err)
	}

	return mongo
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanHolds(t)
		mongo.Close(t)
	}
}

// As returns an HTTP client that calls the service as the given user.
func (e *TestEnv) As(userID, role string) *client.HttpClient {
	c := client.NewHttpClient(e.ServerURL)
	c.Headers[httputil.HeaderUserID] = userID
	c.Headers[httputil.HeaderUserRole] = role
	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
