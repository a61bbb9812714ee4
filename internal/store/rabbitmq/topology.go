package rabbitmq

import (
	"encoding/json"
	"errors"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobMessage is the queue payload. Only the job id travels through the
// broker; the prompt and the credential stay server side.
type JobMessage struct {
	JobID string `json:"job_id"`
}

var ErrBadMessage = errors.New("rabbitmq: malformed job message")

func DecodeJobMessage(body []byte) (JobMessage, error) {
	var m JobMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return JobMessage{}, errors.Join(ErrBadMessage, err)
	}
	m.JobID = strings.TrimSpace(m.JobID)
	if m.JobID == "" {
		return JobMessage{}, ErrBadMessage
	}
	return m, nil
}

type queueSpec struct {
	name string
	args amqp.Table
}

// topology lists <queue>.dlq and <queue> in declaration order. Rejected
// deliveries on the main queue dead-letter to the dlq.
func topology(queue string) []queueSpec {
	dlq := queue + ".dlq"
	return []queueSpec{
		{name: dlq},
		{name: queue, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlq,
		}},
	}
}

func declareTopology(ch *amqp.Channel, queue string) error {
	for _, q := range topology(queue) {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return err
		}
	}
	return nil
}

func dial(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	if err := declareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
