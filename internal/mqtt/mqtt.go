// Package mqtt lets operators trigger the batch carryover sweep over a broker
// instead of HTTP, for schedulers that already speak MQTT.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

const (
	RunTopic    = "kidcurate/ops/carryover/run"
	ResultTopic = "kidcurate/ops/carryover/result"

	qos            = 1
	publishTimeout = 5 * time.Second
	runTimeout     = 10 * time.Minute
)

// BatchRunner is the part of the carryover processor the listener drives.
type BatchRunner interface {
	RunBatchCarryover(ctx context.Context, date model.Date) (scheduling.BatchResult, error)
}

// RunCommand is the payload accepted on RunTopic. An empty date means the
// day before the listener's current day.
type RunCommand struct {
	Date string `json:"date"`
}

// RunResult is published to ResultTopic after every command.
type RunResult struct {
	Date    string `json:"date"`
	Found   int    `json:"found"`
	Carried int    `json:"carried"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewClient connects to brokerURL and returns the client.
func NewClient(brokerURL, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(false)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// Listener runs one sweep per command. Commands are handled one at a time.
type Listener struct {
	client paho.Client
	runner BatchRunner
	now    func() time.Time

	mu sync.Mutex
}

func NewListener(client paho.Client, runner BatchRunner, now func() time.Time) *Listener {
	if now == nil {
		now = time.Now
	}
	return &Listener{client: client, runner: runner, now: now}
}

// Start subscribes to RunTopic.
func (l *Listener) Start() error {
	token := l.client.Subscribe(RunTopic, qos, func(_ paho.Client, msg paho.Message) {
		res := l.HandleCommand(context.Background(), msg.Payload())
		l.publish(res)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", RunTopic, token.Error())
	}
	log.Info().Str("topic", RunTopic).Msg("listening for carryover commands")
	return nil
}

// Stop unsubscribes and disconnects.
func (l *Listener) Stop() {
	if token := l.client.Unsubscribe(RunTopic); token.WaitTimeout(publishTimeout) && token.Error() != nil {
		log.Warn().Err(token.Error()).Msg("failed to unsubscribe")
	}
	l.client.Disconnect(250)
}

// HandleCommand decodes one payload and runs the sweep it asks for.
func (l *Listener) HandleCommand(ctx context.Context, payload []byte) RunResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cmd RunCommand
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cmd); err != nil {
			log.Warn().Err(err).Msg("malformed carryover command")
			return RunResult{Error: "malformed command: " + err.Error()}
		}
	}

	date := model.DateOf(l.now().UTC()).AddDays(-1)
	if cmd.Date != "" {
		parsed, err := model.ParseDate(cmd.Date)
		if err != nil {
			return RunResult{Date: cmd.Date, Error: "date must be YYYY-MM-DD"}
		}
		date = parsed
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	res, err := l.runner.RunBatchCarryover(ctx, date)
	out := RunResult{Date: date.String(), Found: res.Found, Carried: res.Carried, Failed: res.Failed}
	if err != nil {
		log.Error().Err(err).Str("date", date.String()).Msg("carryover command failed")
		out.Error = err.Error()
	}
	return out
}

func (l *Listener) publish(res RunResult) {
	body, err := json.Marshal(res)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode carryover result")
		return
	}
	token := l.client.Publish(ResultTopic, qos, false, body)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("topic", ResultTopic).Msg("timed out publishing carryover result")
		return
	}
	if token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", ResultTopic).Msg("failed to publish carryover result")
	}
}
