//go:build integration

// Package integration runs the conformance suite against real backends.
// Containers are provisioned with testcontainers; select drivers with the
// INTEGRATION_DRIVER environment variable (comma separated, default all):
//
//	INTEGRATION_DRIVER=redis,nats go test -tags integration ./integration/...
package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/docker/go-connections/nat"
	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goforj/kvconform"
	"github.com/goforj/kvconform/kvcontract"
	"github.com/goforj/kvconform/refcache"
)

type fixture struct {
	name  string
	setup func(t *testing.T) kvconform.Factory
}

func TestConformance_AllDrivers(t *testing.T) {
	fixtures := []fixture{
		{name: "memory", setup: memoryFixture},
		{name: "sqlite", setup: sqliteFixture},
		{name: "redis", setup: redisFixture},
		{name: "mysql", setup: mysqlFixture},
		{name: "postgres", setup: postgresFixture},
		{name: "nats", setup: natsFixture},
		{name: "dynamodb", setup: dynamoFixture},
	}

	ran := false
	for _, fx := range fixtures {
		if !driverEnabled(fx.name) {
			continue
		}
		ran = true
		fx := fx
		t.Run(fx.name, func(t *testing.T) {
			factory := fx.setup(t)
			kvconform.Run(t, factory, kvconform.Options{})
		})
	}
	if !ran {
		t.Skip("no integration drivers selected")
	}
}

// freshCache flushes leftover state so every case starts empty, which is what
// the runner's fresh-instance rule means for a shared backend.
func freshCache(t testing.TB, store refcache.Store) kvcontract.Cache {
	t.Helper()
	cache := refcache.New(store)
	if err := cache.Clear(context.Background()); err != nil {
		t.Fatalf("clear backend before case: %v", err)
	}
	return cache
}

func memoryFixture(t *testing.T) kvconform.Factory {
	return func(tb testing.TB) kvcontract.Cache {
		return refcache.NewMemoryCache(context.Background())
	}
}

func sqliteFixture(t *testing.T) kvconform.Factory {
	dsn := filepath.Join(t.TempDir(), "cache.db")
	store := refcache.NewSQLStore(context.Background(), "sqlite", dsn)
	return func(tb testing.TB) kvcontract.Cache {
		return freshCache(tb, store)
	}
}

func redisFixture(t *testing.T) kvconform.Factory {
	ctx := context.Background()
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-bookworm",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort(nat.Port("6379/tcp")).WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	store := refcache.NewRedisStore(ctx, client, refcache.WithPrefix("itest"))
	return func(tb testing.TB) kvcontract.Cache {
		return freshCache(tb, store)
	}
}

func mysqlFixture(t *testing.T) kvconform.Factory {
	ctx := context.Background()
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image: "mysql:8",
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "pass",
			"MYSQL_DATABASE":      "app",
			"MYSQL_USER":          "user",
			"MYSQL_PASSWORD":      "pass",
		},
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(nat.Port("3306/tcp")).WithStartupTimeout(90*time.Second),
			wait.ForLog("ready for connections").WithOccurrence(2).WithStartupTimeout(90*time.Second),
		),
	}, "3306/tcp")

	dsn := "user:pass@tcp(" + addr + ")/app"
	store := retrySQLStore(t, "mysql", dsn)
	return func(tb testing.TB) kvcontract.Cache {
		return freshCache(tb, store)
	}
}

func postgresFixture(t *testing.T) kvconform.Factory {
	ctx := context.Background()
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-bookworm",
		Env:          map[string]string{"POSTGRES_PASSWORD": "pass", "POSTGRES_USER": "user", "POSTGRES_DB": "app"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort(nat.Port("5432/tcp")).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")

	dsn := "postgres://user:pass@" + addr + "/app?sslmode=disable"
	store := retrySQLStore(t, "pgx", dsn)
	return func(tb testing.TB) kvcontract.Cache {
		return freshCache(tb, store)
	}
}

func natsFixture(t *testing.T) kvconform.Factory {
	ctx := context.Background()
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "nats:2",
		Cmd:          []string{"-js"},
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
	}, "4222/tcp")

	nc, err := nats.Connect("nats://" + addr)
	if err != nil {
		t.Fatalf("connect nats: %v", err)
	}
	t.Cleanup(func() {
		_ = nc.Drain()
		nc.Close()
	})
	js, err := nc.JetStream()
	if err != nil {
		t.Fatalf("jetstream nats: %v", err)
	}
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: "cache_itest", History: 1})
	if err != nil {
		t.Fatalf("create nats kv bucket: %v", err)
	}

	store := refcache.NewNATSStore(ctx, kv, refcache.WithPrefix("itest"))
	return func(tb testing.TB) kvcontract.Cache {
		return freshCache(tb, store)
	}
}

func dynamoFixture(t *testing.T) kvconform.Factory {
	ctx := context.Background()
	addr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "amazon/dynamodb-local:latest",
		ExposedPorts: []string{"8000/tcp"},
		WaitingFor:   wait.ForListeningPort(nat.Port("8000/tcp")).WithStartupTimeout(45 * time.Second),
	}, "8000/tcp")
	endpoint := "http://" + addr

	client := newDynamoLocalClient(t, ctx, endpoint)
	createDynamoTable(t, ctx, client, "cache_entries")

	store := refcache.NewDynamoStore(ctx,
		refcache.WithDynamoClient(client),
		refcache.WithDynamoTable("cache_entries"),
		refcache.WithPrefix("itest"),
	)
	return func(tb testing.TB) kvcontract.Cache {
		return freshCache(tb, store)
	}
}

func newDynamoLocalClient(t *testing.T, ctx context.Context, endpoint string) *dynamodb.Client {
	t.Helper()
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
	)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	cfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		})
	return dynamodb.NewFromConfig(cfg)
}

func createDynamoTable(t *testing.T, ctx context.Context, client *dynamodb.Client, table string) {
	t.Helper()
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []dynamotypes.AttributeDefinition{
			{AttributeName: strptr("cache_key"), AttributeType: dynamotypes.ScalarAttributeTypeS},
		},
		KeySchema: []dynamotypes.KeySchemaElement{
			{AttributeName: strptr("cache_key"), KeyType: dynamotypes.KeyTypeHash},
		},
		BillingMode: dynamotypes.BillingModePayPerRequest,
	})
	if err != nil && !strings.Contains(err.Error(), "ResourceInUseException") {
		t.Fatalf("create dynamo table: %v", err)
	}
}

func strptr(s string) *string { return &s }

func retrySQLStore(t *testing.T, driverName, dsn string) refcache.Store {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(10 * time.Second)
	for {
		store := refcache.NewSQLStore(ctx, driverName, dsn)
		if _, _, err := store.Get(ctx, "probe"); err == nil {
			return store
		} else if time.Now().After(deadline) {
			t.Fatalf("sql backend never became ready: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func startContainer(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest, port nat.Port) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(shutdownCtx)
	})
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s container host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("%s container port: %v", req.Image, err)
	}
	return net.JoinHostPort(host, mapped.Port())
}

func driverEnabled(name string) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv("INTEGRATION_DRIVER")))
	if value == "" || value == "all" {
		return true
	}
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == name {
			return true
		}
	}
	return false
}
