// Command provision creates the flight tracking table when it does not exist.
// Settings come from the environment, optionally loaded from a .env file.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/joho/godotenv"
	"github.com/nategamble/flight_price_checker/flights/internal/repository"
	"github.com/nategamble/flight_price_checker/internal"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Provisioner struct {
	client dynamodbiface.DynamoDBAPI
	log    logrus.FieldLogger
}

// Provision creates table and waits until it is active. An existing table is left untouched.
func (p *Provisioner) Provision(ctx context.Context, table string) (bool, error) {
	exists, err := p.tableExists(ctx, table)
	if err != nil {
		return false, err
	}
	if exists {
		p.log.WithField("table", table).Info("table already exists")
		return false, nil
	}

	_, err = p.client.CreateTableWithContext(ctx, repository.TableDefinition(table))
	if err != nil {
		return false, errors.Wrapf(err, "creating table %s", table)
	}

	err = p.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return true, errors.Wrapf(err, "waiting for table %s", table)
	}

	p.log.WithField("table", table).Info("table created")
	return true, nil
}

func (p *Provisioner) tableExists(ctx context.Context, table string) (bool, error) {
	_, err := p.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeResourceNotFoundException {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "describing table %s", table)
	}
	return true, nil
}

func NewProvisioner(client dynamodbiface.DynamoDBAPI, log logrus.FieldLogger) *Provisioner {
	return &Provisioner{
		client: client,
		log:    log,
	}
}

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	timeout := flag.Duration("timeout", 2*time.Minute, "how long to wait for the table")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Fatal("unable to load env file")
	}

	log := internal.NewLogger(internal.EnvOr("LOG_LEVEL", "info"))
	table := internal.EnvOr("DYNAMODB_FLIGHT_TRACKING", repository.TableName)

	sess, err := session.NewSession()
	if err != nil {
		log.WithError(err).Fatal("unable to create aws session")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provisioner := NewProvisioner(internal.NewDynamodbClient(sess, os.Getenv("DYNAMODB_ENDPOINT")), log)
	if _, err := provisioner.Provision(ctx, table); err != nil {
		log.WithError(err).Fatal("unable to provision table")
	}
}
