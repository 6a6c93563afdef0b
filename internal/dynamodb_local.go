package internal

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/ory/dockertest"
	"github.com/pkg/errors"
)

var ErrPortNotOpen = errors.New("port is not open")

// PortActive dials address once per second until it answers or timeout seconds pass.
func PortActive(network, address string, timeout int) error {
	for i := 0; i < timeout; i++ {
		s, err := net.Dial(network, address)
		if err == nil {
			s.Close()
			return nil
		}
		time.Sleep(time.Second)
	}
	return errors.Wrap(ErrPortNotOpen, address)
}

// NewDynamodbClient builds a client from the default session, pointed at
// endpoint when one is given (dynamodb-local).
func NewDynamodbClient(sess *session.Session, endpoint string) *dynamodb.DynamoDB {
	if IsBlank(endpoint) {
		return dynamodb.New(sess)
	}
	return dynamodb.New(sess, &aws.Config{
		Endpoint: aws.String(endpoint),
	})
}

// DynamodbStart runs amazon/dynamodb-local in docker for the duration of a test.
// Tests using it are skipped with -short.
func DynamodbStart(t *testing.T) (func(), *dynamodb.DynamoDB) {
	if testing.Short() {
		t.Skip("dynamodb-local needs docker")
	}

	os.Setenv("AWS_REGION", "us-east-1")
	os.Setenv("AWS_ACCESS_KEY_ID", "x")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "x")

	log := NewLogger("debug").WithField("test", t.Name())

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Could not connect to docker: %s\n", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository:   "amazon/dynamodb-local",
		Tag:          "latest",
		ExposedPorts: []string{"8000"},
	})
	if err != nil {
		t.Fatalf("Could not start resource: %s\n", err)
	}

	hostPort := resource.GetHostPort("8000/tcp")
	if err := PortActive("tcp", hostPort, 10); err != nil {
		if perr := pool.Purge(resource); perr != nil {
			log.WithError(perr).Error("could not purge dynamodb-local")
		}
		t.Fatalf("Could not connect to resource: %v\n", err)
	}
	log.WithField("endpoint", hostPort).Debug("dynamodb-local is up")

	closer := func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatal(err)
		}
	}

	sess, err := session.NewSession()
	if err != nil {
		closer()
		t.Fatalf("Could not create aws session: %v\n", err)
	}

	return closer, NewDynamodbClient(sess, "http://"+hostPort)
}
