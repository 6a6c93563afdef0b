package internal

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
)

type Enqueuer struct {
	client       sqsiface.SQSAPI
	delaySeconds int64
	queueURLs    map[string]string
}

// SendMsg publishes msg as JSON on the queue named queue.
func (e *Enqueuer) SendMsg(ctx context.Context, msg interface{}, queue string) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshaling queue message")
	}

	queueURL, err := e.queueURL(ctx, queue)
	if err != nil {
		return err
	}

	_, err = e.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		DelaySeconds: aws.Int64(e.delaySeconds),
		MessageBody:  aws.String(string(msgBytes)),
		QueueUrl:     aws.String(queueURL),
	})
	if err != nil {
		return errors.Wrapf(err, "sending message to %s", queue)
	}

	return nil
}

// queueURL resolves and remembers the url of a queue for the life of the
// Lambda container.
func (e *Enqueuer) queueURL(ctx context.Context, queue string) (string, error) {
	if url, ok := e.queueURLs[queue]; ok {
		return url, nil
	}

	out, err := e.client.GetQueueUrlWithContext(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		return "", errors.Wrapf(err, "resolving url of queue %s", queue)
	}

	e.queueURLs[queue] = aws.StringValue(out.QueueUrl)
	return e.queueURLs[queue], nil
}

func NewEnqueuer(client sqsiface.SQSAPI, delaySeconds int64) *Enqueuer {
	return &Enqueuer{
		client:       client,
		delaySeconds: delaySeconds,
		queueURLs:    map[string]string{},
	}
}
